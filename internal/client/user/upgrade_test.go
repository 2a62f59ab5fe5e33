package user

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	Calls  int
	Status *client.SessionStatus
	Err    error
}

func (f *fakeChecker) SessionStatus(context.Context, string) (*client.SessionStatus, error) {
	f.Calls++
	return f.Status, f.Err
}

func legacySession(t *testing.T, e *env, s session.Session) *session.Session {
	t.Helper()
	require.NoError(t, e.store.Set(context.Background(), session.StorageKey, s))
	return session.Load(e.store)
}

func TestUpgradeFromSession_BothAccounts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	legacy := legacySession(t, e, session.Session{
		Email:        "last@b.c",
		SessionToken: "st-last",
		CachedCredentials: &session.Credentials{
			Email:               "sync@b.c",
			SessionToken:        "st-sync",
			SessionTokenContext: models.SessionTokenUsedForSync,
			UID:                 "uid-sync",
		},
	})
	checker := &fakeChecker{Status: &client.SessionStatus{UID: "uid-last"}}

	require.NoError(t, e.user.UpgradeFromSession(ctx, legacy, checker))

	assert.Equal(t, 1, checker.Calls)
	assert.Equal(t, "uid-last", e.user.GetSignedInAccount().UID())
	assert.Equal(t, "sync@b.c", mustGet(t, e, "uid-sync")["email"])
	assert.Equal(t, "st-last", mustGet(t, e, "uid-last")["sessionToken"])
	assert.False(t, e.store.Has(session.StorageKey))
}

func TestUpgradeFromSession_SameEmailSkipsOldAccount(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	legacy := legacySession(t, e, session.Session{
		Email:        "a@b.c",
		SessionToken: "st",
		CachedCredentials: &session.Credentials{
			Email:        "a@b.c",
			SessionToken: "st-sync",
			UID:          "u1",
		},
	})
	checker := &fakeChecker{}

	require.NoError(t, e.user.UpgradeFromSession(ctx, legacy, checker))

	assert.Zero(t, checker.Calls)
	assert.Equal(t, "u1", e.user.GetSignedInAccount().UID())
	assert.Nil(t, session.Load(e.store).CachedCredentials)
	assert.Equal(t, "a@b.c", session.Load(e.store).Email)
}

func TestUpgradeFromSession_LookupFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	legacy := legacySession(t, e, session.Session{Email: "a@b.c", SessionToken: "st"})
	checker := &fakeChecker{Err: errBoom}

	require.NoError(t, e.user.UpgradeFromSession(ctx, legacy, checker))

	assert.True(t, e.user.GetSignedInAccount().IsDefault())
	assert.Equal(t, "st", session.Load(e.store).SessionToken)
}

func TestUpgradeFromSession_AlreadyUpgraded(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.user.SetSignedInAccount(ctx, models.Attributes{"uid": "u1"})
	require.NoError(t, err)
	legacy := legacySession(t, e, session.Session{Email: "a@b.c", SessionToken: "st"})
	checker := &fakeChecker{Status: &client.SessionStatus{UID: "u2"}}

	require.NoError(t, e.user.UpgradeFromSession(ctx, legacy, checker))

	assert.Zero(t, checker.Calls)
	assert.Equal(t, "u1", e.user.GetSignedInAccount().UID())
}

func TestUpgradeFromSession_CachedCredentialsFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.client.RecoveryErr = errBoom
	legacy := legacySession(t, e, session.Session{
		CachedCredentials: &session.Credentials{Email: "a@b.c", SessionToken: "st", UID: "u1"},
	})

	err := e.user.UpgradeFromSession(ctx, legacy, &fakeChecker{})
	require.ErrorIs(t, err, errBoom)
	assert.True(t, e.user.GetSignedInAccount().IsDefault())
	assert.Nil(t, session.Load(e.store).CachedCredentials)
}

func TestUpgradeFromUnfilteredAccountData_RewritesOnlyDirtyAccounts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.store.Set(ctx, keyAccounts, map[string]any{
		"u1": map[string]any{"uid": "u1", "email": "a@b.c"},
		"u2": map[string]any{"uid": "u2", "email": "b@b.c", "password": "hunter2", "assertion": "x"},
		"u3": map[string]any{"uid": "u3", "verified": true, "keyFetchToken": "kft"},
	}))
	writesBefore := e.backend.SetCalls[keyAccounts]

	require.NoError(t, e.user.UpgradeFromUnfilteredAccountData(ctx))

	assert.Equal(t, 1, e.backend.SetCalls[keyAccounts]-writesBefore)
	assert.Equal(t, models.Attributes{"uid": "u2", "email": "b@b.c"}, mustGet(t, e, "u2"))
	assert.Equal(t, "a@b.c", mustGet(t, e, "u1")["email"])
}

func TestUpgradeFromUnfilteredAccountData_NothingToDo(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.storeAccounts(t, models.Attributes{"uid": "u1"}, models.Attributes{"uid": "u2"})
	writesBefore := e.backend.SetCalls[keyAccounts]

	require.NoError(t, e.user.UpgradeFromUnfilteredAccountData(ctx))
	assert.Equal(t, writesBefore, e.backend.SetCalls[keyAccounts])
}
