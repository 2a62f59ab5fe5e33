// Package session reads the session record written by client versions that
// predate the account store. It only exists so the store can migrate it.
package session

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/client/storage"
)

// StorageKey is the storage key of the legacy session record.
const StorageKey = "__fxa_session"

// Field names a top-level field of the session record.
type Field string

const (
	FieldEmail               Field = "email"
	FieldSessionToken        Field = "sessionToken"
	FieldSessionTokenContext Field = "sessionTokenContext"
	FieldCachedCredentials   Field = "cachedCredentials"
)

// Credentials is the sync account a legacy session cached next to the
// account it was last signed in with.
type Credentials struct {
	Email               string `json:"email,omitempty"`
	SessionToken        string `json:"sessionToken,omitempty"`
	SessionTokenContext string `json:"sessionTokenContext,omitempty"`
	UID                 string `json:"uid,omitempty"`
}

type Session struct {
	Email               string       `json:"email,omitempty"`
	SessionToken        string       `json:"sessionToken,omitempty"`
	SessionTokenContext string       `json:"sessionTokenContext,omitempty"`
	CachedCredentials   *Credentials `json:"cachedCredentials,omitempty"`

	store *storage.Storage
}

// Load reads the session from store. A missing or unreadable record yields
// an empty session.
func Load(store *storage.Storage) *Session {
	s := &Session{}
	store.Get(StorageKey, s)
	s.store = store
	return s
}

// Save writes the session back, or removes it once it is empty.
func (s *Session) Save(ctx context.Context) error {
	if s.empty() {
		if err := s.store.Remove(ctx, StorageKey); err != nil {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, StorageKey, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear unsets field and saves the session.
func (s *Session) Clear(ctx context.Context, field Field) error {
	switch field {
	case FieldEmail:
		s.Email = ""
	case FieldSessionToken:
		s.SessionToken = ""
	case FieldSessionTokenContext:
		s.SessionTokenContext = ""
	case FieldCachedCredentials:
		s.CachedCredentials = nil
	default:
		return fmt.Errorf("unknown session field %q", field)
	}
	return s.Save(ctx)
}

func (s *Session) empty() bool {
	return s.Email == "" && s.SessionToken == "" && s.SessionTokenContext == "" && s.CachedCredentials == nil
}
