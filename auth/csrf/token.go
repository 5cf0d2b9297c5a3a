package csrf

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// tokenByteLength is 32 bytes (256 bits), well past the guessing threshold
// for a single-use, short-lived value.
const tokenByteLength = 32

func newToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[csrf.newToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
