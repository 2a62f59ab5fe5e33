package client

// SignInRequest carries the derived credentials of a sign-in attempt.
type SignInRequest struct {
	Email              string
	AuthPW             string
	Service            string
	Reason             string
	UnblockCode        string
	VerificationMethod string
	Keys               bool
}

type SignUpRequest struct {
	Email       string
	AuthPW      string
	Service     string
	ResumeToken string
	Keys        bool
}

// Session is the server's answer to any operation that creates a session.
type Session struct {
	UID                string
	SessionToken       string
	KeyFetchToken      string
	Verified           bool
	VerificationMethod string
	VerificationReason string
}

type SessionStatus struct {
	UID   string
	Email string
}

type RecoveryEmailStatus struct {
	Email    string
	Verified bool
}

type VerifyCodeOptions struct {
	Service  string
	Reminder string
	Type     string
}

type PasswordResetRequest struct {
	Email  string
	AuthPW string
	Token  string
	Code   string
	Keys   bool
}

type ChangePasswordRequest struct {
	Email               string
	OldAuthPW           string
	NewAuthPW           string
	SessionToken        string
	SessionTokenContext string
	Keys                bool
}
