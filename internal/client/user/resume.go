package user

import (
	"github.com/dmitrijs2005/accountkeeper/internal/client/resumetoken"
)

const resumeTokenUniqueUserID = "uniqueUserId"

var resumeTokenSchema = resumetoken.Schema{
	resumeTokenUniqueUserID: resumetoken.UUID,
}

var (
	_ resumetoken.Producer = (*User)(nil)
	_ resumetoken.Consumer = (*User)(nil)
)

// PickResumeTokenInfo returns the store's contribution to a resume token.
func (u *User) PickResumeTokenInfo() resumetoken.Token {
	return resumetoken.Token{resumeTokenUniqueUserID: u.UniqueUserID()}
}

// PopulateFromStringifiedResumeToken restores the unique user id from a
// resume token. An empty token is ignored; an invalid one changes nothing.
func (u *User) PopulateFromStringifiedResumeToken(s string) error {
	if s == "" {
		return nil
	}
	token, err := resumetoken.Parse(s)
	if err != nil {
		return err
	}
	fields, err := resumeTokenSchema.Validate(token)
	if err != nil {
		return err
	}

	if id, ok := fields[resumeTokenUniqueUserID].(string); ok {
		u.mu.Lock()
		u.uniqueUserID = id
		u.mu.Unlock()
	}
	return nil
}
