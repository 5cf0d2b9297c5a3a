// Package sessions owns the opaque session records binding a platform session
// token to a resolved identity and its provider credentials.
package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/guildscript/webapi/identity"
)

// tokenByteLength is 32 bytes (256 bits) of entropy per session token.
const tokenByteLength = 32

// Session binds an opaque token to a resolved identity. The token carries no
// embedded meaning; resolving it to a user always requires a store lookup.
type Session struct {
	Token       string               `json:"token"`
	User        identity.User        `json:"user"`
	Credentials identity.Credentials `json:"-"`
	CreatedAt   time.Time            `json:"created_at"`
}

func newToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[sessions.newToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
