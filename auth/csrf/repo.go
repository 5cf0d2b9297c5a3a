// Package csrf issues and validates the single-use anti-forgery tokens that
// bind an outbound authorization redirect to its eventual callback.
package csrf

import "context"

// Repo is the CSRF token store contract.
type Repo interface {
	// GenerateToken produces an unguessable token and records it as pending.
	GenerateToken(ctx context.Context) (string, error)

	// CheckAndConsume atomically checks presence/non-expiry of the token and
	// removes it, returning whether it was valid. Concurrent calls with the
	// same token yield at most one true.
	CheckAndConsume(ctx context.Context, token string) (bool, error)
}
