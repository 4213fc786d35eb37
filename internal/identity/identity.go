package identity

import "context"

// Identity is the provider's record of a signed-in principal. It is
// read-only to the rest of the system; the provider is the source of
// truth for the email-verification flag.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Change is one identity-state notification. A nil Identity means the
// principal signed out.
type Change struct {
	Identity *Identity
}

// Client is a single principal's live handle on the identity provider,
// the server-side equivalent of a client SDK auth instance. Sign-in and
// sign-out publish a Change on Changes; callers must not assume state
// is updated before that notification arrives.
type Client interface {
	// SignIn verifies the credentials. On success the new identity is
	// delivered via Changes, not returned here.
	SignIn(ctx context.Context, email, password string) error

	// SignUp creates the identity, triggers the verification email and
	// returns the new identity. It does not publish a Change; the
	// session layer announces the session once the profile record
	// exists.
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)

	// SignOut invalidates the provider session and publishes a
	// signed-out Change.
	SignOut(ctx context.Context) error

	// SendVerificationEmail re-sends the verification mail for the
	// currently signed-in identity.
	SendVerificationEmail(ctx context.Context) error

	// Reload re-fetches the identity from the provider, refreshing the
	// email-verification flag.
	Reload(ctx context.Context) (*Identity, error)

	// Current returns the identity as of the last change, or nil.
	Current() *Identity

	// Changes delivers identity-change notifications. The channel has
	// capacity one and older undelivered notifications are dropped in
	// favour of the latest.
	Changes() <-chan Change

	// Close releases the handle. No Changes are delivered afterwards.
	Close()
}

// Provider hands out per-session client handles.
type Provider interface {
	NewClient() Client
}
