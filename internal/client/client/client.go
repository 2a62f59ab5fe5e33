package client

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
)

type Client interface {
	Close() error

	SignIn(ctx context.Context, req SignInRequest) (*Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*Session, error)
	SignOut(ctx context.Context, sessionToken string) error

	SessionStatus(ctx context.Context, sessionToken string) (*SessionStatus, error)
	RecoveryEmailStatus(ctx context.Context, sessionToken string) (*RecoveryEmailStatus, error)
	VerifyCode(ctx context.Context, uid, code string, opts VerifyCodeOptions) error

	CompletePasswordReset(ctx context.Context, req PasswordResetRequest) (*Session, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) (*Session, error)
	AccountDestroy(ctx context.Context, email, authPW, sessionToken string) error

	AccountStatus(ctx context.Context, uid string) (bool, error)
	AccountStatusByEmail(ctx context.Context, email string) (bool, error)

	AttachedDevices(ctx context.Context, sessionToken string) ([]models.Device, error)
	DeviceDestroy(ctx context.Context, sessionToken, deviceID string) error
	AttachedOAuthApps(ctx context.Context, sessionToken string) ([]models.OAuthApp, error)
	OAuthAppDestroy(ctx context.Context, sessionToken, appID string) error

	RejectUnblockCode(ctx context.Context, uid, code string) error
}

// MarketingClient manages newsletter subscriptions.
type MarketingClient interface {
	OptIn(ctx context.Context, email, sessionToken, newsletterID string) error
}
