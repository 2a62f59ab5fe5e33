package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
)

// NewsletterID is the newsletter a freshly verified user opts into.
const NewsletterID = "firefox-accounts-journey"

type SignInOptions struct {
	Reason             string
	UnblockCode        string
	VerificationMethod string
}

type SignUpOptions struct {
	ResumeToken string
	// OptInToMarketingEmail subscribes the user to NewsletterID once the
	// sign-up is verified.
	OptInToMarketingEmail bool
}

type VerifyOptions struct {
	Service  string
	Reminder string
	Type     string
}

func (a *Account) credentials(password []byte) (*cryptox.Credentials, error) {
	email := a.Email()
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrInvalidParameter)
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: password is required", common.ErrInvalidParameter)
	}
	return cryptox.DeriveCredentials(email, password)
}

func (a *Account) checkInvalidToken(err error) error {
	if errors.Is(err, common.ErrInvalidToken) {
		a.invalidateSession()
	}
	return err
}

// applySession stores the session returned by the server. The key material
// is kept only when the relier asked for keys.
func (a *Account) applySession(s *client.Session, relier models.Relier, creds *cryptox.Credentials) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.attrs[models.KeyUID] = s.UID
	a.attrs[models.KeySessionToken] = s.SessionToken
	a.attrs[models.KeySessionTokenContext] = relier.Context
	a.attrs[models.KeyVerified] = s.Verified
	if s.VerificationMethod != "" {
		a.attrs[models.KeyVerificationMethod] = s.VerificationMethod
	}
	if s.VerificationReason != "" {
		a.attrs[models.KeyVerificationReason] = s.VerificationReason
	}
	if relier.WantsKeys {
		a.attrs[models.KeyKeyFetchToken] = s.KeyFetchToken
		a.attrs[models.KeyUnwrapBKey] = creds.UnwrapBKey
	}
}

// Fetch refreshes server-side state. Only the verification status of an
// unverified session is checked.
func (a *Account) Fetch(ctx context.Context) error {
	token := a.SessionToken()
	if token == "" || models.Truthy(a.Get(models.KeyVerified)) {
		return nil
	}

	status, err := a.client.RecoveryEmailStatus(ctx, token)
	if err != nil {
		return a.checkInvalidToken(err)
	}
	a.Set(models.KeyVerified, status.Verified)
	return nil
}

// SessionStatus asks the server who owns the session token and records the
// canonical uid and email.
func (a *Account) SessionStatus(ctx context.Context) error {
	token := a.SessionToken()
	if token == "" {
		return common.ErrInvalidToken
	}

	status, err := a.client.SessionStatus(ctx, token)
	if err != nil {
		return a.checkInvalidToken(err)
	}
	a.Merge(models.Attributes{
		models.KeyUID:   status.UID,
		models.KeyEmail: status.Email,
	})
	return nil
}

// SignIn authenticates with password. Without a password an existing
// session is reused after checking its verification status.
func (a *Account) SignIn(ctx context.Context, password []byte, relier models.Relier, opts SignInOptions) error {
	if len(password) == 0 {
		token := a.SessionToken()
		if token == "" {
			return fmt.Errorf("%w: password is required", common.ErrInvalidParameter)
		}
		status, err := a.client.RecoveryEmailStatus(ctx, token)
		if err != nil {
			return a.checkInvalidToken(err)
		}
		a.Set(models.KeyVerified, status.Verified)
		return nil
	}

	creds, err := a.credentials(password)
	if err != nil {
		return err
	}

	s, err := a.client.SignIn(ctx, client.SignInRequest{
		Email:              a.Email(),
		AuthPW:             creds.AuthPW,
		Service:            relier.Service,
		Reason:             opts.Reason,
		UnblockCode:        opts.UnblockCode,
		VerificationMethod: opts.VerificationMethod,
		Keys:               relier.WantsKeys,
	})
	if err != nil {
		return err
	}
	a.applySession(s, relier, creds)
	return nil
}

func (a *Account) SignUp(ctx context.Context, password []byte, relier models.Relier, opts SignUpOptions) error {
	creds, err := a.credentials(password)
	if err != nil {
		return err
	}

	s, err := a.client.SignUp(ctx, client.SignUpRequest{
		Email:       a.Email(),
		AuthPW:      creds.AuthPW,
		Service:     relier.Service,
		ResumeToken: opts.ResumeToken,
		Keys:        relier.WantsKeys,
	})
	if err != nil {
		return err
	}
	a.applySession(s, relier, creds)
	if opts.OptInToMarketingEmail {
		a.Set(models.KeyNeedsOptedInToMarketingEmail, true)
	}
	return nil
}

// SignOut destroys the session on the server.
func (a *Account) SignOut(ctx context.Context) error {
	token := a.SessionToken()
	if token == "" {
		return common.ErrInvalidToken
	}
	return a.client.SignOut(ctx, token)
}

// Destroy deletes the account on the server.
func (a *Account) Destroy(ctx context.Context, password []byte) error {
	creds, err := a.credentials(password)
	if err != nil {
		return err
	}
	return a.client.AccountDestroy(ctx, a.Email(), creds.AuthPW, a.SessionToken())
}

// VerifySignUp confirms the sign-up code. A pending newsletter opt-in runs
// afterwards; its failure is reported as a *common.MarketingEmailError and
// leaves the account verified.
func (a *Account) VerifySignUp(ctx context.Context, code string, opts VerifyOptions) error {
	uid := a.UID()
	if uid == "" {
		return fmt.Errorf("%w: uid is required", common.ErrInvalidParameter)
	}

	err := a.client.VerifyCode(ctx, uid, code, client.VerifyCodeOptions{
		Service:  opts.Service,
		Reminder: opts.Reminder,
		Type:     opts.Type,
	})
	if err != nil {
		return err
	}
	a.Set(models.KeyVerified, true)

	if !models.Truthy(a.Get(models.KeyNeedsOptedInToMarketingEmail)) {
		return nil
	}
	a.Unset(models.KeyNeedsOptedInToMarketingEmail)
	if a.marketing == nil {
		return nil
	}
	if err := a.marketing.OptIn(ctx, a.Email(), a.SessionToken(), NewsletterID); err != nil {
		return &common.MarketingEmailError{NewsletterID: NewsletterID, Err: err}
	}
	return nil
}

func (a *Account) CompletePasswordReset(ctx context.Context, password []byte, token, code string, relier models.Relier) error {
	creds, err := a.credentials(password)
	if err != nil {
		return err
	}

	s, err := a.client.CompletePasswordReset(ctx, client.PasswordResetRequest{
		Email:  a.Email(),
		AuthPW: creds.AuthPW,
		Token:  token,
		Code:   code,
		Keys:   relier.WantsKeys,
	})
	if err != nil {
		return err
	}
	a.applySession(s, relier, creds)
	return nil
}

// ChangePassword replaces the password and adopts the new session. Keys are
// always fetched since other contexts need them to re-derive sync keys.
func (a *Account) ChangePassword(ctx context.Context, oldPassword, newPassword []byte, relier models.Relier) error {
	oldCreds, err := a.credentials(oldPassword)
	if err != nil {
		return err
	}
	newCreds, err := a.credentials(newPassword)
	if err != nil {
		return err
	}

	s, err := a.client.ChangePassword(ctx, client.ChangePasswordRequest{
		Email:               a.Email(),
		OldAuthPW:           oldCreds.AuthPW,
		NewAuthPW:           newCreds.AuthPW,
		SessionToken:        a.SessionToken(),
		SessionTokenContext: a.String(models.KeySessionTokenContext),
		Keys:                true,
	})
	if err != nil {
		return err
	}

	if relier.Context == "" {
		relier.Context = a.String(models.KeySessionTokenContext)
	}
	relier.WantsKeys = true
	a.applySession(s, relier, newCreds)
	return nil
}

func (a *Account) CheckUIDExists(ctx context.Context) (bool, error) {
	return a.client.AccountStatus(ctx, a.UID())
}

func (a *Account) CheckEmailExists(ctx context.Context) (bool, error) {
	return a.client.AccountStatusByEmail(ctx, a.Email())
}

func (a *Account) FetchDevices(ctx context.Context) ([]models.Device, error) {
	devices, err := a.client.AttachedDevices(ctx, a.SessionToken())
	if err != nil {
		return nil, a.checkInvalidToken(err)
	}
	return devices, nil
}

func (a *Account) DestroyDevice(ctx context.Context, device models.Device) error {
	return a.client.DeviceDestroy(ctx, a.SessionToken(), device.ID)
}

func (a *Account) FetchOAuthApps(ctx context.Context) ([]models.OAuthApp, error) {
	apps, err := a.client.AttachedOAuthApps(ctx, a.SessionToken())
	if err != nil {
		return nil, a.checkInvalidToken(err)
	}
	return apps, nil
}

func (a *Account) DestroyOAuthApp(ctx context.Context, app models.OAuthApp) error {
	return a.client.OAuthAppDestroy(ctx, a.SessionToken(), app.ID)
}

// RejectUnblockCode invalidates an unblock code and reports the sign-in
// attempt as suspicious.
func (a *Account) RejectUnblockCode(ctx context.Context, code string) error {
	return a.client.RejectUnblockCode(ctx, a.UID(), code)
}
