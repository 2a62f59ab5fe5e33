// Package user implements the account store: the accounts known on this
// machine, which of them is signed in, and the flows that move accounts in
// and out of that state.
//
// The store keeps two storage keys: "accounts", an ordered map of uid to
// persisted account fields, and "currentAccountUid". The signed-in account
// is cached in memory and re-hydrated whenever currentAccountUid no longer
// matches the cached instance.
//
// Overlapping operations are not serialized. Two concurrent
// SetSignedInAccount calls race and the last write to storage wins. The
// internal mutex only protects the cache and each read-modify-write of the
// accounts map, and is never held across a network call.
package user

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/client/account"
	"github.com/dmitrijs2005/accountkeeper/internal/client/browser"
	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/notifier"
	"github.com/dmitrijs2005/accountkeeper/internal/client/storage"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
)

const (
	keyAccounts          = "accounts"
	keyCurrentAccountUID = "currentAccountUid"
)

// ErrNoUID is returned when an account without a uid would be persisted.
var ErrNoUID = errors.New("account has no uid")

// Notifier broadcasts identity changes. *notifier.Notifier satisfies it.
type Notifier interface {
	TriggerRemote(ctx context.Context, cmd notifier.Command, payload notifier.Payload)
	TriggerAll(ctx context.Context, cmd notifier.Command, payload notifier.Payload)
}

type Options struct {
	Client        client.Client
	Marketing     client.MarketingClient
	Metrics       metrics.Sink
	Notifier      Notifier
	Storage       *storage.Storage
	Logger        logging.Logger
	Window        browser.Environment
	UniqueUserID  string
	OAuthClientID string
}

type User struct {
	client        client.Client
	marketing     client.MarketingClient
	metrics       metrics.Sink
	notifier      Notifier
	storage       *storage.Storage
	logger        logging.Logger
	window        browser.Environment
	oauthClientID string

	mu           sync.Mutex
	uniqueUserID string
	cached       *account.Account
	cachedUID    string
}

// New builds the store. A resume token in the window's "resume" search
// parameter may override opts.UniqueUserID.
func New(opts Options) *User {
	u := &User{
		client:        opts.Client,
		marketing:     opts.Marketing,
		metrics:       opts.Metrics,
		notifier:      opts.Notifier,
		storage:       opts.Storage,
		logger:        opts.Logger,
		window:        opts.Window,
		oauthClientID: opts.OAuthClientID,
		uniqueUserID:  opts.UniqueUserID,
	}
	if u.logger == nil {
		u.logger = logging.Nop()
	}
	if u.notifier == nil {
		u.notifier = notifier.New(u.logger)
	}
	if u.storage == nil {
		u.storage = storage.NewMemory()
	}
	if u.window == nil {
		u.window, _ = browser.NewWindow("")
	}

	if err := u.PopulateFromStringifiedResumeToken(u.window.SearchParam("resume")); err != nil {
		u.logger.Debug(context.Background(), "ignoring resume token", "error", err)
	}
	return u
}

// UniqueUserID identifies this user on this machine.
func (u *User) UniqueUserID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uniqueUserID
}

// InitAccount normalizes data into an account. An *account.Account is
// returned as is; anything else is wrapped with the store's collaborators.
func (u *User) InitAccount(data account.Source) *account.Account {
	var attrs models.Attributes
	switch v := data.(type) {
	case nil:
	case *account.Account:
		if v != nil {
			return v
		}
	default:
		attrs = v.AccountAttributes()
	}
	return account.New(attrs, account.Options{
		Client:        u.client,
		Marketing:     u.marketing,
		OAuthClientID: u.oauthClientID,
	})
}

// IsSyncAccount reports whether data describes an account signed in from a
// browser's sync flow.
func (u *User) IsSyncAccount(data account.Source) bool {
	return u.InitAccount(data).IsFromSync()
}

func (u *User) accounts() *models.AccountMap {
	m := models.NewAccountMap()
	if !u.storage.Get(keyAccounts, m) {
		return models.NewAccountMap()
	}
	return m
}

func (u *User) currentUID() string {
	var uid string
	u.storage.Get(keyCurrentAccountUID, &uid)
	return uid
}

// persistLocked writes a's persistent fields under its uid.
func (u *User) persistLocked(ctx context.Context, a *account.Account) error {
	uid := a.UID()
	if uid == "" {
		return ErrNoUID
	}
	m := u.accounts()
	m.Set(uid, a.ToPersistentJSON())
	if err := u.storage.Set(ctx, keyAccounts, m); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}
	return nil
}

func (u *User) setSignedInAccountUIDLocked(ctx context.Context, uid string) error {
	if err := u.storage.Set(ctx, keyCurrentAccountUID, uid); err != nil {
		return fmt.Errorf("set signed-in account: %w", err)
	}
	if u.cached != nil && u.cachedUID != uid {
		u.cached = nil
		u.cachedUID = ""
	}
	return nil
}

func (u *User) signedInAccountLocked() *account.Account {
	uid := u.currentUID()
	if u.cached != nil && u.cachedUID == uid {
		return u.cached
	}

	var data models.Attributes
	if uid != "" {
		data, _ = u.accounts().Get(uid)
	}
	u.cached = u.InitAccount(data)
	u.cachedUID = uid
	return u.cached
}

// GetSignedInAccount returns the signed-in account, or a default account
// when nobody is signed in. Repeated calls return the same instance until
// the signed-in uid changes.
func (u *User) GetSignedInAccount() *account.Account {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.signedInAccountLocked()
}

func (u *User) IsSignedInAccount(a *account.Account) bool {
	return a.UID() == u.GetSignedInAccount().UID()
}

// SetSignedInAccountByUID marks a stored account as signed in. Unknown uids
// are ignored.
func (u *User) SetSignedInAccountByUID(ctx context.Context, uid string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.accounts().Has(uid) {
		return nil
	}
	return u.setSignedInAccountUIDLocked(ctx, uid)
}

// ClearSignedInAccountUID forgets which account is signed in without
// telling anyone.
func (u *User) ClearSignedInAccountUID(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.clearSignedInAccountUIDLocked(ctx)
}

func (u *User) clearSignedInAccountUIDLocked(ctx context.Context) error {
	u.cached = nil
	u.cachedUID = ""
	if err := u.storage.Remove(ctx, keyCurrentAccountUID); err != nil {
		return fmt.Errorf("clear signed-in account: %w", err)
	}
	return nil
}

// ClearSignedInAccount signs the current account out locally and tells
// other contexts. The account stays in storage.
func (u *User) ClearSignedInAccount(ctx context.Context) error {
	u.mu.Lock()
	uid := u.signedInAccountLocked().UID()
	err := u.clearSignedInAccountUIDLocked(ctx)
	u.mu.Unlock()
	if err != nil {
		return err
	}

	u.notifier.TriggerRemote(ctx, notifier.SignedOut, notifier.Payload{models.KeyUID: uid})
	return nil
}

// SetAccount fetches data's server state and persists the result. Nothing
// is written when the fetch fails.
func (u *User) SetAccount(ctx context.Context, data account.Source) (*account.Account, error) {
	a := u.InitAccount(data)
	if err := a.Fetch(ctx); err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.persistLocked(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetSignedInAccount stores data and makes it the signed-in account. On
// failure the previous signed-in account is left in place.
func (u *User) SetSignedInAccount(ctx context.Context, data account.Source) (*account.Account, error) {
	a := u.InitAccount(data)
	a.Set(models.KeyLastLogin, u.window.Now().UnixMilli())

	a, err := u.SetAccount(ctx, a)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.cached = a
	u.cachedUID = a.UID()
	if err := u.setSignedInAccountUIDLocked(ctx, a.UID()); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveAllAccounts forgets every stored account. Unlike RemoveAccount it
// sends no SignedOut notification.
func (u *User) RemoveAllAccounts(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.clearSignedInAccountUIDLocked(ctx); err != nil {
		return err
	}
	if err := u.storage.Remove(ctx, keyAccounts); err != nil {
		return fmt.Errorf("remove accounts: %w", err)
	}
	return nil
}

// RemoveAccount deletes data from storage, signing it out first when it is
// the signed-in account.
func (u *User) RemoveAccount(ctx context.Context, data account.Source) error {
	a := u.InitAccount(data)
	if u.IsSignedInAccount(a) {
		if err := u.ClearSignedInAccount(ctx); err != nil {
			return err
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	m := u.accounts()
	m.Delete(a.UID())
	if err := u.storage.Set(ctx, keyAccounts, m); err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	return nil
}

// GetAccountByUID returns the stored account, or a default account.
func (u *User) GetAccountByUID(uid string) *account.Account {
	data, _ := u.accounts().Get(uid)
	return u.InitAccount(data)
}

// GetAccountByEmail returns the most recently added account with email, or
// a default account.
func (u *User) GetAccountByEmail(email string) *account.Account {
	m := u.accounts()
	uids := m.UIDs()
	for i := len(uids) - 1; i >= 0; i-- {
		data, _ := m.Get(uids[i])
		if data.String(models.KeyEmail) == email {
			return u.InitAccount(data)
		}
	}
	return u.InitAccount(nil)
}

// Accounts returns every stored account in insertion order.
func (u *User) Accounts() []*account.Account {
	m := u.accounts()
	out := make([]*account.Account, 0, m.Len())
	for _, uid := range m.UIDs() {
		data, _ := m.Get(uid)
		out = append(out, u.InitAccount(data))
	}
	return out
}

// GetChooserAccount returns the account to preselect in an account chooser:
// the first stored sync account, otherwise the signed-in account.
func (u *User) GetChooserAccount() *account.Account {
	m := u.accounts()
	for _, uid := range m.UIDs() {
		data, _ := m.Get(uid)
		if u.IsSyncAccount(data) {
			return u.InitAccount(data)
		}
	}
	return u.GetSignedInAccount()
}

// LogNumStoredAccounts reports how many accounts are stored.
func (u *User) LogNumStoredAccounts(ctx context.Context) {
	if u.metrics == nil {
		return
	}
	u.metrics.LogEventOnce(ctx, fmt.Sprintf("num.accounts.%d", u.accounts().Len()))
}
