package user

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/session"
)

// SessionChecker resolves a session token to its owner.
type SessionChecker interface {
	SessionStatus(ctx context.Context, sessionToken string) (*client.SessionStatus, error)
}

// UpgradeFromSession adopts the accounts of a legacy session record. It
// does nothing once a signed-in account exists.
//
// A legacy session may hold two accounts: the sync account in its cached
// credentials and the account last signed in with. Both are migrated. The
// second has no stored uid, so it is looked up with checker; if that lookup
// fails the account is skipped.
func (u *User) UpgradeFromSession(ctx context.Context, legacy *session.Session, checker SessionChecker) error {
	if !u.GetSignedInAccount().IsDefault() {
		return nil
	}

	addOldSessionAccount := shouldAddOldSessionAccount(legacy)

	if cc := legacy.CachedCredentials; cc != nil {
		_, err := u.SetSignedInAccount(ctx, legacyAccount(cc.Email, cc.SessionToken, cc.SessionTokenContext, cc.UID))
		if cerr := legacy.Clear(ctx, session.FieldCachedCredentials); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("upgrade cached credentials: %w", err)
		}
	}

	if !addOldSessionAccount {
		return nil
	}

	status, err := checker.SessionStatus(ctx, legacy.SessionToken)
	if err != nil {
		u.logger.Debug(ctx, "skipping legacy session account", "error", err)
		return nil
	}

	_, err = u.SetSignedInAccount(ctx, legacyAccount(legacy.Email, legacy.SessionToken, legacy.SessionTokenContext, status.UID))
	if err != nil {
		return fmt.Errorf("upgrade session account: %w", err)
	}

	for _, f := range []session.Field{session.FieldEmail, session.FieldSessionToken, session.FieldSessionTokenContext} {
		if err := legacy.Clear(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// legacyAccount builds account data from legacy session fields, leaving
// empty fields undefined.
func legacyAccount(email, sessionToken, sessionTokenContext, uid string) models.Attributes {
	attrs := models.Attributes{}
	for k, v := range map[string]string{
		models.KeyEmail:               email,
		models.KeySessionToken:        sessionToken,
		models.KeySessionTokenContext: sessionTokenContext,
		models.KeyUID:                 uid,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}

// shouldAddOldSessionAccount reports whether the last signed-in account of
// a legacy session differs from its sync account. Accounts with the same
// email are assumed to be the same account.
func shouldAddOldSessionAccount(legacy *session.Session) bool {
	if legacy.Email == "" || legacy.SessionToken == "" {
		return false
	}
	return legacy.CachedCredentials == nil || legacy.CachedCredentials.Email != legacy.Email
}

// UpgradeFromUnfilteredAccountData strips fields outside the allow-list
// from stored accounts. Only accounts that change are rewritten.
func (u *User) UpgradeFromUnfilteredAccountData(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	m := u.accounts()
	for _, uid := range m.UIDs() {
		unfiltered, _ := m.Get(uid)
		filtered := models.FilterAllowed(unfiltered)
		if reflect.DeepEqual(unfiltered, filtered) {
			continue
		}

		err := u.persistLocked(ctx, u.InitAccount(filtered))
		if errors.Is(err, ErrNoUID) {
			u.logger.Warn(ctx, "dropping stored account without uid", "key", uid)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
