// Package account implements a single locally known identity: its attribute
// record plus the network operations that create, refresh and destroy its
// session.
package account

import (
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
)

// Source is anything that can describe an account: a raw attribute map or
// an *Account.
type Source interface {
	AccountAttributes() models.Attributes
}

// Options carries the collaborators an Account uses for network operations.
type Options struct {
	Client        client.Client
	Marketing     client.MarketingClient
	OAuthClientID string
}

type Account struct {
	mu            sync.RWMutex
	attrs         models.Attributes
	client        client.Client
	marketing     client.MarketingClient
	oauthClientID string
}

// New builds an account from data. Keys outside models.AllowedKeys are
// dropped.
func New(data models.Attributes, opts Options) *Account {
	return &Account{
		attrs:         models.FilterAllowed(data),
		client:        opts.Client,
		marketing:     opts.Marketing,
		oauthClientID: opts.OAuthClientID,
	}
}

// AccountAttributes returns a copy of the account's attributes.
func (a *Account) AccountAttributes() models.Attributes {
	return a.Attributes()
}

func (a *Account) Attributes() models.Attributes {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs.Clone()
}

func (a *Account) Get(key string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs[key]
}

func (a *Account) String(key string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs.String(key)
}

// Has reports whether key is set to a non-nil value.
func (a *Account) Has(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs.Has(key)
}

// Defined reports whether key is present, even if nil.
func (a *Account) Defined(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs.Defined(key)
}

// Set stores value under key. Keys outside the allow-list are ignored.
func (a *Account) Set(key string, value any) {
	if !models.IsAllowedKey(key) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attrs[key] = value
}

// Merge copies every key present in attrs onto the account, nil values
// included. Absent keys leave the current value alone.
func (a *Account) Merge(attrs models.Attributes) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range attrs {
		if models.IsAllowedKey(k) {
			a.attrs[k] = v
		}
	}
}

func (a *Account) Unset(keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, k := range keys {
		delete(a.attrs, k)
	}
}

// Pick returns the listed keys that are present.
func (a *Account) Pick(keys ...string) models.Attributes {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs.Pick(keys...)
}

func (a *Account) UID() string {
	return a.String(models.KeyUID)
}

func (a *Account) Email() string {
	return a.String(models.KeyEmail)
}

func (a *Account) SessionToken() string {
	return a.String(models.KeySessionToken)
}

// IsDefault reports whether the account carries no data at all.
func (a *Account) IsDefault() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, v := range a.attrs {
		if v != nil {
			return false
		}
	}
	return true
}

// IsFromSync reports whether the session was established by a browser's
// sync flow.
func (a *Account) IsFromSync() bool {
	return a.String(models.KeySessionTokenContext) == models.SessionTokenUsedForSync
}

// ToPersistentJSON returns the attributes that are written to local storage.
func (a *Account) ToPersistentJSON() models.Attributes {
	return a.Pick(models.PersistentKeys...)
}

// OAuthClientID is the client id used when the account requests OAuth
// tokens.
func (a *Account) OAuthClientID() string {
	return a.oauthClientID
}

func (a *Account) invalidateSession() {
	a.Unset(models.KeySessionToken, models.KeyKeyFetchToken, models.KeyAccessToken)
}
