package auth

import "errors"

var (
	// BadCSRFTokenErr means the callback state was absent, expired or already
	// consumed. The caller must restart the login flow.
	BadCSRFTokenErr = errors.New("bad csrf token")

	// InternalErr is the opaque provider/store failure surfaced to callers.
	// Full detail is logged server-side before this is returned.
	InternalErr = errors.New("internal error")
)
