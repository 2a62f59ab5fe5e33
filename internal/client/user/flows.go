package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/client/account"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/notifier"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
)

// SessionStatus checks a's session with the server and stores the result.
// A nil a means the signed-in account. When the session turns out to be
// invalid the account is still stored, so its cleared token is not reused.
func (u *User) SessionStatus(ctx context.Context, a *account.Account) (*account.Account, error) {
	if a == nil {
		a = u.GetSignedInAccount()
	}

	if err := a.SessionStatus(ctx); err != nil {
		if errors.Is(err, common.ErrInvalidToken) && !a.IsDefault() {
			if _, perr := u.SetAccount(ctx, a); perr != nil {
				u.logger.Warn(ctx, "failed to store invalidated account", "uid", a.UID(), "error", perr)
			}
		}
		return nil, err
	}

	if _, err := u.SetAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount destroys the account on the server, removes it locally and
// tells every listener.
func (u *User) DeleteAccount(ctx context.Context, data account.Source, password []byte) error {
	a := u.InitAccount(data)
	if err := a.Destroy(ctx, password); err != nil {
		return err
	}
	if err := u.RemoveAccount(ctx, a); err != nil {
		return err
	}
	u.notifier.TriggerAll(ctx, notifier.Delete, notifier.Payload{models.KeyUID: a.UID()})
	return nil
}

// SignInAccount authenticates a and makes it the signed-in account. When an
// account with the same uid is already stored, a's defined attributes are
// merged onto it and the stored account is the one kept, so state such as
// granted permissions survives the sign-in.
func (u *User) SignInAccount(ctx context.Context, a *account.Account, password []byte, relier models.Relier, opts account.SignInOptions) (*account.Account, error) {
	if err := a.SignIn(ctx, password, relier, opts); err != nil {
		return nil, err
	}

	if old := u.GetAccountByUID(a.UID()); !old.IsDefault() {
		old.Merge(a.Attributes())
		a = old
	}

	u.notifyOfAccountSignIn(ctx, a)
	return u.SetSignedInAccount(ctx, a)
}

func (u *User) SignUpAccount(ctx context.Context, a *account.Account, password []byte, relier models.Relier, opts account.SignUpOptions) (*account.Account, error) {
	if err := a.SignUp(ctx, password, relier, opts); err != nil {
		return nil, err
	}
	return u.SetSignedInAccount(ctx, a)
}

// SignOutAccount ends a's session on the server. The local signed-in state
// is cleared even when the server call fails; the server error is still
// returned.
func (u *User) SignOutAccount(ctx context.Context, a *account.Account) (err error) {
	defer func() {
		if !u.IsSignedInAccount(a) {
			return
		}
		if cerr := u.ClearSignedInAccount(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return a.SignOut(ctx)
}

// CompleteAccountSignUp verifies the sign-up code. If a has a session the
// user verified in this browser, and other contexts are told about the
// sign-in. A newsletter failure does not hold back that notification but
// is still returned.
func (u *User) CompleteAccountSignUp(ctx context.Context, a *account.Account, code string, opts account.VerifyOptions) error {
	err := a.VerifySignUp(ctx, code, opts)
	if err != nil && !common.IsMarketingEmailError(err) {
		return err
	}

	if a.Has(models.KeySessionToken) {
		u.notifyOfAccountSignIn(ctx, a)
	}
	return err
}

// ChangeAccountPassword changes the password, stores the new session and
// tells other contexts about it.
func (u *User) ChangeAccountPassword(ctx context.Context, a *account.Account, oldPassword, newPassword []byte, relier models.Relier) (*account.Account, error) {
	if err := a.ChangePassword(ctx, oldPassword, newPassword, relier); err != nil {
		return nil, err
	}
	if _, err := u.SetSignedInAccount(ctx, a); err != nil {
		return nil, err
	}

	loginData := notifier.Payload(a.Pick(notifier.Schemata[notifier.ChangePassword]...))
	loginData[models.KeyVerified] = models.Truthy(loginData[models.KeyVerified])
	u.notifier.TriggerRemote(ctx, notifier.ChangePassword, loginData)
	return a, nil
}

func (u *User) CompleteAccountPasswordReset(ctx context.Context, a *account.Account, password []byte, token, code string, relier models.Relier) (*account.Account, error) {
	if err := a.CompletePasswordReset(ctx, password, token, code, relier); err != nil {
		return nil, err
	}
	u.notifyOfAccountSignIn(ctx, a)
	return u.SetSignedInAccount(ctx, a)
}

// notifyOfAccountSignIn tells other contexts which account signed in. They
// load the rest from storage.
func (u *User) notifyOfAccountSignIn(ctx context.Context, a *account.Account) {
	payload := notifier.Payload(a.Pick(models.KeyUID, models.KeyUnwrapBKey, models.KeyKeyFetchToken))
	u.notifier.TriggerRemote(ctx, notifier.SignedIn, payload)
}

// DestroyAccountClient disconnects a device or an OAuth app.
func (u *User) DestroyAccountClient(ctx context.Context, a *account.Account, c models.AttachedClient) error {
	switch c.ClientType {
	case models.ClientTypeDevice:
		return u.DestroyAccountDevice(ctx, a, c.Device())
	case models.ClientTypeOAuthApp:
		return u.DestroyAccountApp(ctx, a, c.OAuthApp())
	default:
		return fmt.Errorf("%w: client type %q", common.ErrInvalidParameter, c.ClientType)
	}
}

func (u *User) FetchAccountDevices(ctx context.Context, a *account.Account) ([]models.Device, error) {
	return a.FetchDevices(ctx)
}

func (u *User) FetchAccountOAuthApps(ctx context.Context, a *account.Account) ([]models.OAuthApp, error) {
	return a.FetchOAuthApps(ctx)
}

// DestroyAccountDevice disconnects device. Destroying the current device of
// the signed-in account signs it out.
func (u *User) DestroyAccountDevice(ctx context.Context, a *account.Account, device models.Device) error {
	if err := a.DestroyDevice(ctx, device); err != nil {
		return err
	}
	if u.IsSignedInAccount(a) && device.IsCurrentDevice {
		return u.ClearSignedInAccount(ctx)
	}
	return nil
}

func (u *User) DestroyAccountApp(ctx context.Context, a *account.Account, app models.OAuthApp) error {
	return a.DestroyOAuthApp(ctx, app)
}

// CheckAccountUIDExists asks the server whether a's uid is registered and
// removes a from storage if not.
func (u *User) CheckAccountUIDExists(ctx context.Context, a *account.Account) (bool, error) {
	exists, err := a.CheckUIDExists(ctx)
	if err != nil {
		return false, err
	}
	return exists, u.removeUnknown(ctx, a, exists)
}

// CheckAccountEmailExists asks the server whether a's email is registered
// and removes a from storage if not.
func (u *User) CheckAccountEmailExists(ctx context.Context, a *account.Account) (bool, error) {
	exists, err := a.CheckEmailExists(ctx)
	if err != nil {
		return false, err
	}
	return exists, u.removeUnknown(ctx, a, exists)
}

func (u *User) removeUnknown(ctx context.Context, a *account.Account, exists bool) error {
	if exists {
		return nil
	}
	return u.RemoveAccount(ctx, a)
}

// RejectAccountUnblockCode invalidates an unblock code and reports the
// sign-in attempt as suspicious.
func (u *User) RejectAccountUnblockCode(ctx context.Context, a *account.Account, code string) error {
	return a.RejectUnblockCode(ctx, code)
}
