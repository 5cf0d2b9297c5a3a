package sessions

import (
	"context"

	"github.com/guildscript/webapi/identity"
)

// Repo is the session store contract. Sessions live until Delete or until the
// store's configured TTL elapses; provider credential expiry never shortens a
// session on its own.
type Repo interface {
	// Create allocates a fresh unique token and persists the binding. A token
	// value held by another live session is never reissued.
	Create(ctx context.Context, user identity.User, creds identity.Credentials) (*Session, error)

	// Get looks up a session by token. Absent or expired sessions yield
	// (nil, nil), not an error.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the binding if present; deleting a missing session is a
	// no-op.
	Delete(ctx context.Context, token string) error
}
