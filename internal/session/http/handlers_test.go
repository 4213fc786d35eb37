package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/session"
	"github.com/kotamart/storefront-backend/internal/session/policy"
	"github.com/kotamart/storefront-backend/internal/users"
)

// fakeProvider is an in-memory identity provider shared by all client
// handles, so accounts created in one browsing session can sign in from
// another.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // by email
}

type fakeAccount struct {
	id       identity.Identity
	password string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: make(map[string]*fakeAccount)}
}

func (p *fakeProvider) register(email, password, uid string, verified bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = &fakeAccount{
		id:       identity.Identity{UID: uid, Email: email, EmailVerified: verified},
		password: password,
	}
}

func (p *fakeProvider) setVerified(email string, verified bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.accounts[email]; ok {
		a.id.EmailVerified = verified
	}
}

func (p *fakeProvider) NewClient() identity.Client {
	return &fakeProviderClient{p: p, changes: make(chan identity.Change, 1)}
}

type fakeProviderClient struct {
	p       *fakeProvider
	mu      sync.Mutex
	cur     *identity.Identity
	changes chan identity.Change
}

func (c *fakeProviderClient) emit(id *identity.Identity) {
	select {
	case <-c.changes:
	default:
	}
	c.changes <- identity.Change{Identity: id}
}

func (c *fakeProviderClient) SignIn(ctx context.Context, email, password string) error {
	c.p.mu.Lock()
	acct, ok := c.p.accounts[email]
	c.p.mu.Unlock()
	if !ok || acct.password != password {
		return identity.ErrInvalidCredentials
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := acct.id
	c.cur = &cp
	c.emit(&cp)
	return nil
}

func (c *fakeProviderClient) SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	c.p.mu.Lock()
	if _, exists := c.p.accounts[email]; exists {
		c.p.mu.Unlock()
		return nil, identity.ErrEmailInUse
	}
	if len(password) < 6 {
		c.p.mu.Unlock()
		return nil, identity.ErrWeakPassword
	}
	id := identity.Identity{UID: "uid-" + email, Email: email}
	c.p.accounts[email] = &fakeAccount{id: id, password: password}
	c.p.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := id
	c.cur = &cp
	return &cp, nil
}

func (c *fakeProviderClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = nil
	c.emit(nil)
	return nil
}

func (c *fakeProviderClient) SendVerificationEmail(ctx context.Context) error { return nil }

func (c *fakeProviderClient) Reload(ctx context.Context) (*identity.Identity, error) {
	c.mu.Lock()
	cur := c.cur
	c.mu.Unlock()
	if cur == nil {
		return nil, nil
	}

	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if acct, ok := c.p.accounts[cur.Email]; ok {
		cp := acct.id
		return &cp, nil
	}
	cp := *cur
	return &cp, nil
}

func (c *fakeProviderClient) Current() *identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeProviderClient) Changes() <-chan identity.Change { return c.changes }

func (c *fakeProviderClient) Close() {}

type fakeDirectory struct {
	mu      sync.Mutex
	records map[string]*users.AppUser
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{records: make(map[string]*users.AppUser)}
}

func (d *fakeDirectory) put(u *users.AppUser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *u
	d.records[u.UID] = &cp
}

func (d *fakeDirectory) Get(ctx context.Context, uid string) (*users.AppUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.records[uid]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) Create(ctx context.Context, u *users.AppUser) error {
	d.put(u)
	return nil
}

func (d *fakeDirectory) GetOrCreate(ctx context.Context, uid string, defaults users.AppUser) (*users.AppUser, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.records[uid]; ok {
		cp := *u
		return &cp, false, nil
	}
	cp := defaults
	d.records[uid] = &cp
	out := cp
	return &out, true, nil
}

func (d *fakeDirectory) UpdateProfile(ctx context.Context, uid string, p users.ProfileUpdate) (*users.AppUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.records[uid]
	if !ok {
		return nil, users.ErrNotFound
	}
	if p.Name != "" {
		u.Name = p.Name
	}
	u.Address = p.Address
	u.Phone = p.Phone
	u.InfoComplete = p.InfoComplete
	cp := *u
	return &cp, nil
}

type testEnv struct {
	router   *gin.Engine
	provider *fakeProvider
	dir      *fakeDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := newFakeProvider()
	dir := newFakeDirectory()

	mgr := session.NewManager(provider, dir, time.Hour)
	t.Cleanup(mgr.Close)

	r := gin.New()
	api := r.Group("/")
	api.Use(WithSession(mgr))

	NewHandler(mgr, dir).Register(api)

	shop := api.Group("/shop")
	shop.Use(RequireAuthenticated())
	shop.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	dashboard := api.Group("/dashboard")
	dashboard.Use(RequireRole(users.RoleOwner))
	dashboard.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	return &testEnv{router: r, provider: provider, dir: dir}
}

func (e *testEnv) do(method, path, body, cookie string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

// login registers the account and profile, signs in and returns the
// session cookie.
func (e *testEnv) login(t *testing.T, email string, u *users.AppUser, verified bool) string {
	t.Helper()

	e.provider.register(email, "secret99", u.UID, verified)
	e.dir.put(u)

	w := e.do(http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"secret99"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func TestSignUp(t *testing.T) {
	t.Run("creates account and profile, starts a session", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/auth/signup",
			`{"email":"new@example.com","password":"secret99","name":"Newbie"}`, "")

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		cookie := sessionCookie(t, w)
		assert.Contains(t, w.Body.String(), `"Newbie"`)

		u, err := env.dir.Get(context.Background(), "uid-new@example.com")
		require.NoError(t, err)
		assert.Equal(t, users.RoleCustomer, u.Role)

		// Fresh accounts are unverified, so every page routes to the
		// verification screen.
		w = env.do(http.MethodGet, "/route?path=/", "", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), policy.RouteVerifyEmail)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.register("dup@example.com", "secret99", "uid-1", false)

		w := env.do(http.MethodPost, "/auth/signup",
			`{"email":"dup@example.com","password":"secret99","name":"Dup"}`, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("weak password", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/auth/signup",
			`{"email":"b@example.com","password":"abc","name":"B"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/auth/signup",
			`{"email":"c@example.com","password":"secret99"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.register("a@example.com", "secret99", "u1", true)

		w := env.do(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"wrong"}`, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid email or password")
	})

	t.Run("customer session reaches shop routes only", func(t *testing.T) {
		env := newTestEnv(t)
		u := users.NewCustomer("u1", "a@example.com", "Alice")
		u.Address = "12 Main St"
		u.Phone = "0771234567"
		u.InfoComplete = true
		cookie := env.login(t, "a@example.com", u, true)

		w := env.do(http.MethodGet, "/shop/ping", "", cookie)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodGet, "/dashboard/ping", "", cookie)
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"redirect":"`+policy.RouteHome+`"`)
	})

	t.Run("owner session reaches the dashboard", func(t *testing.T) {
		env := newTestEnv(t)
		owner := &users.AppUser{UID: "o1", Email: "o@example.com", Role: users.RoleOwner, Name: "Owner"}
		cookie := env.login(t, "o@example.com", owner, true)

		w := env.do(http.MethodGet, "/dashboard/ping", "", cookie)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodGet, "/route?path=/", "", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), policy.RouteDashboard)
	})
}

func TestGuardsWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/shop/ping", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), policy.RouteLogin)

	w = env.do(http.MethodGet, "/dashboard/ping", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The verdict endpoint itself stays open; it answers "redirect to
	// login" instead of rejecting.
	w = env.do(http.MethodGet, "/route?path=/cart", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), policy.RouteLogin)

	w = env.do(http.MethodGet, "/route?path=/login", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"render"`)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	u := users.NewCustomer("u1", "a@example.com", "Alice")
	cookie := env.login(t, "a@example.com", u, true)

	w := env.do(http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), policy.RouteLogin)

	// The store is disposed; the old cookie no longer resolves.
	w = env.do(http.MethodGet, "/shop/ping", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	u := users.NewCustomer("u1", "a@example.com", "Alice")
	cookie := env.login(t, "a@example.com", u, true)

	// Incomplete profile routes to the details form.
	w := env.do(http.MethodGet, "/route?path=/", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), policy.RouteCustomerInfo)

	w = env.do(http.MethodPut, "/auth/profile",
		`{"address":"12 Main St","phone":"0771234567"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := env.dir.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, stored.InfoComplete)
	assert.Equal(t, "Alice", stored.Name) // blank name keeps the old one

	// Completion flips the verdict: the form itself now redirects home.
	w = env.do(http.MethodGet, "/route?path=/customer-info", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"`+policy.RouteHome+`"`)
}

func TestRefreshPicksUpVerification(t *testing.T) {
	env := newTestEnv(t)
	u := users.NewCustomer("u1", "a@example.com", "Alice")
	cookie := env.login(t, "a@example.com", u, false)

	w := env.do(http.MethodGet, "/route?path=/", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), policy.RouteVerifyEmail)

	// The user clicks the emailed link, then the page polls refresh.
	env.provider.setVerified("a@example.com", true)

	w = env.do(http.MethodPost, "/auth/refresh", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"emailVerified":true`)
}

func TestResendVerificationRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/verify-email/resend", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetSessionWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/auth/session", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}
