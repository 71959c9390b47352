package core

import "context"

// IdentityProvider is the external credential/session authority. User
// documents in the record store are keyed by the account ids it issues.
type IdentityProvider interface {
	// CreateAccount provisions credentials for a new user and returns the
	// account id. It must be invocable without disturbing the caller's own
	// active session: each call runs in an isolated session context.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// Authenticate verifies credentials and returns the account id.
	Authenticate(ctx context.Context, email, password string) (string, error)
	// DeleteAccount removes the credentials for an account id.
	DeleteAccount(ctx context.Context, id string) error
	// EndSession invalidates a session token.
	EndSession(ctx context.Context, token string) error
	// SessionRevoked reports whether a token was invalidated by EndSession.
	// Authorization layers must consult it on every authenticated request.
	SessionRevoked(token string) bool
}
