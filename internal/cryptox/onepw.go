// Package cryptox derives the credentials sent to and kept from the auth
// server. The password itself never leaves the client: it is stretched
// with PBKDF2 keyed on the email, and the stretched value is expanded with
// HKDF into an authentication key (authPW) and a key-wrapping key
// (unwrapBKey).
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	namespace = "identity.mozilla.com/picl/v1/"

	quickStretchIterations = 1000
	keyLength              = 32
)

func kw(name string) []byte {
	return []byte(namespace + name)
}

func kwe(name, email string) []byte {
	return []byte(namespace + name + ":" + email)
}

// QuickStretch returns PBKDF2-SHA256(password, kwe("quickStretch", email)).
func QuickStretch(email string, password []byte) []byte {
	return pbkdf2.Key(password, kwe("quickStretch", email), quickStretchIterations, keyLength, sha256.New)
}

func expand(secret []byte, info string) ([]byte, error) {
	out := make([]byte, keyLength)
	r := hkdf.New(sha256.New, secret, []byte{0}, kw(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveAuthPW expands a stretched password into the value sent to the
// auth server in place of the password.
func DeriveAuthPW(stretched []byte) ([]byte, error) {
	return expand(stretched, "authPW")
}

// DeriveUnwrapBKey expands a stretched password into the key used to unwrap
// the account's class-B key.
func DeriveUnwrapBKey(stretched []byte) ([]byte, error) {
	return expand(stretched, "unwrapBkey")
}

// Credentials holds hex-encoded values derived from an email and password.
type Credentials struct {
	AuthPW     string
	UnwrapBKey string
}

// DeriveCredentials stretches password for email and returns both derived
// keys. Intermediate key material is wiped before returning.
func DeriveCredentials(email string, password []byte) (*Credentials, error) {
	stretched := QuickStretch(email, password)
	defer common.WipeByteArray(stretched)

	authPW, err := DeriveAuthPW(stretched)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(authPW)

	unwrapBKey, err := DeriveUnwrapBKey(stretched)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(unwrapBKey)

	return &Credentials{
		AuthPW:     hex.EncodeToString(authPW),
		UnwrapBKey: hex.EncodeToString(unwrapBKey),
	}, nil
}
