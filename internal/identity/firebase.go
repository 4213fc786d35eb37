package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/time/rate"
)

// FirebaseProvider implements Provider on Firebase Auth: the Admin SDK
// for account lookup and revocation, the Identity Toolkit REST API for
// password verification and verification mail.
type FirebaseProvider struct {
	auth *fbauth.Client
	rest *restClient

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFirebaseProvider(authClient *fbauth.Client, webAPIKey string) (*FirebaseProvider, error) {
	if webAPIKey == "" {
		return nil, fmt.Errorf("FIREBASE_WEB_API_KEY is required")
	}
	return &FirebaseProvider{
		auth:     authClient,
		rest:     newRESTClient(webAPIKey),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

func (p *FirebaseProvider) NewClient() Client {
	return &firebaseClient{
		provider: p,
		changes:  make(chan Change, 1),
	}
}

// limiter returns the sign-in attempt limiter for an email address.
// 1 attempt per 2 seconds sustained, bursts of 5.
func (p *FirebaseProvider) limiter(email string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(0.5), 5)
		p.limiters[key] = l
	}
	return l
}

type firebaseClient struct {
	provider *FirebaseProvider

	mu      sync.Mutex
	current *Identity
	idToken string
	closed  bool
	changes chan Change
}

func (c *firebaseClient) SignIn(ctx context.Context, email, password string) error {
	if !c.provider.limiter(email).Allow() {
		return ErrRateLimited
	}

	acct, err := c.provider.rest.signInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	id, err := c.lookup(ctx, acct.LocalID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.current = id
	c.idToken = acct.IDToken
	c.mu.Unlock()

	c.emit(Change{Identity: id})
	return nil
}

func (c *firebaseClient) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	acct, err := c.provider.rest.signUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		update := (&fbauth.UserToUpdate{}).DisplayName(displayName)
		if _, err := c.provider.auth.UpdateUser(ctx, acct.LocalID, update); err != nil {
			return nil, fmt.Errorf("set display name: %w", err)
		}
	}

	if err := c.provider.rest.sendVerificationEmail(ctx, acct.IDToken); err != nil {
		return nil, err
	}

	id := &Identity{UID: acct.LocalID, Email: acct.Email, EmailVerified: false}

	c.mu.Lock()
	c.current = id
	c.idToken = acct.IDToken
	c.mu.Unlock()

	return id, nil
}

func (c *firebaseClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	id := c.current
	c.current = nil
	c.idToken = ""
	c.mu.Unlock()

	if id != nil {
		// Best effort: a failed revocation must not keep the session alive.
		_ = c.provider.auth.RevokeRefreshTokens(ctx, id.UID)
	}

	c.emit(Change{Identity: nil})
	return nil
}

func (c *firebaseClient) SendVerificationEmail(ctx context.Context) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()

	if token == "" {
		return ErrUnknown
	}
	return c.provider.rest.sendVerificationEmail(ctx, token)
}

func (c *firebaseClient) Reload(ctx context.Context) (*Identity, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	if cur == nil {
		return nil, nil
	}

	id, err := c.lookup(ctx, cur.UID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = id
	c.mu.Unlock()
	return id, nil
}

func (c *firebaseClient) Current() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *firebaseClient) Changes() <-chan Change {
	return c.changes
}

func (c *firebaseClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.changes)
	}
}

func (c *firebaseClient) lookup(ctx context.Context, uid string) (*Identity, error) {
	rec, err := c.provider.auth.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", uid, err)
	}
	return &Identity{
		UID:           rec.UID,
		Email:         rec.Email,
		EmailVerified: rec.EmailVerified,
	}, nil
}

// emit delivers the latest change, dropping an older undelivered one so
// at most one notification is ever pending.
func (c *firebaseClient) emit(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case <-c.changes:
	default:
	}
	c.changes <- ch
}
