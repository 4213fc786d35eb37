package cart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/orders"
	"github.com/kotamart/storefront-backend/internal/products"
	"github.com/kotamart/storefront-backend/internal/session"
	sessionhttp "github.com/kotamart/storefront-backend/internal/session/http"
	"github.com/kotamart/storefront-backend/internal/users"
)

// staticProvider hands out clients that are already signed in; the
// session layer resolves the profile via the directory stub.
type staticProvider struct {
	id *identity.Identity
}

func (p staticProvider) NewClient() identity.Client {
	return &staticClient{id: p.id, ch: make(chan identity.Change, 1)}
}

type staticClient struct {
	id *identity.Identity
	ch chan identity.Change
}

func (c *staticClient) SignIn(ctx context.Context, email, password string) error { return nil }
func (c *staticClient) SignUp(ctx context.Context, email, password, name string) (*identity.Identity, error) {
	return c.id, nil
}
func (c *staticClient) SignOut(ctx context.Context) error                       { return nil }
func (c *staticClient) SendVerificationEmail(ctx context.Context) error         { return nil }
func (c *staticClient) Reload(ctx context.Context) (*identity.Identity, error)  { return c.id, nil }
func (c *staticClient) Current() *identity.Identity                             { return c.id }
func (c *staticClient) Changes() <-chan identity.Change                         { return c.ch }
func (c *staticClient) Close()                                                  {}

type dirStub struct {
	u *users.AppUser
}

func (d dirStub) Get(ctx context.Context, uid string) (*users.AppUser, error) { return d.u, nil }
func (d dirStub) Create(ctx context.Context, u *users.AppUser) error          { return nil }
func (d dirStub) GetOrCreate(ctx context.Context, uid string, defaults users.AppUser) (*users.AppUser, bool, error) {
	return d.u, false, nil
}
func (d dirStub) UpdateProfile(ctx context.Context, uid string, p users.ProfileUpdate) (*users.AppUser, error) {
	return d.u, nil
}

type catalogStub struct {
	byID map[string]*products.Product
}

func (c catalogStub) Get(ctx context.Context, id string) (*products.Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, products.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type placerStub struct {
	placed []*orders.Order
	err    error
}

func (p *placerStub) Create(ctx context.Context, o *orders.Order) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.placed = append(p.placed, o)
	return "order-1", nil
}

type cartEnv struct {
	router *gin.Engine
	cookie string
	placer *placerStub
	mr     *miniredis.Miniredis
}

func newCartEnv(t *testing.T) *cartEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	buyer := &users.AppUser{
		UID: "u1", Email: "a@example.com", Role: users.RoleCustomer,
		Name: "Alice", Phone: "0771234567", Address: "12 Main St", InfoComplete: true,
	}
	provider := staticProvider{id: &identity.Identity{UID: "u1", Email: "a@example.com", EmailVerified: true}}

	mgr := session.NewManager(provider, dirStub{u: buyer}, time.Hour)
	t.Cleanup(mgr.Close)

	sid, st := mgr.Create()
	waitSettled(t, st)

	catalog := catalogStub{byID: map[string]*products.Product{
		"p1": {ID: "p1", Name: "Amul Gold Milk", SKU: "AMUL-GLD-1L", Price: 66.00, Stock: 50},
		"p2": {ID: "p2", Name: "Brown Bread", SKU: "BRD-400G", Price: 45.50, Stock: 20},
	}}
	placer := &placerStub{}

	r := gin.New()
	api := r.Group("/")
	api.Use(sessionhttp.WithSession(mgr))
	NewHandler(NewStore(rdb, time.Hour), catalog, placer).Register(api)

	return &cartEnv{router: r, cookie: sid, placer: placer, mr: mr}
}

func waitSettled(t *testing.T, st *session.Store) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := st.Current(); !s.Loading && s.User != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never settled")
}

func (e *cartEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: sessionhttp.SessionCookie, Value: e.cookie})

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCartHandlers(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		env := newCartEnv(t)

		w := env.do(http.MethodGet, "/cart", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})

	t.Run("add and merge items", func(t *testing.T) {
		env := newCartEnv(t)

		w := env.do(http.MethodPost, "/cart/items", `{"productId":"p1","quantity":2}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(http.MethodPost, "/cart/items", `{"productId":"p1","quantity":3}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":5`)
		assert.Contains(t, w.Body.String(), `"total":330`)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		env := newCartEnv(t)

		w := env.do(http.MethodPost, "/cart/items", `{"productId":"p2"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})

	t.Run("unknown product", func(t *testing.T) {
		env := newCartEnv(t)

		w := env.do(http.MethodPost, "/cart/items", `{"productId":"nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("set quantity and remove", func(t *testing.T) {
		env := newCartEnv(t)
		env.do(http.MethodPost, "/cart/items", `{"productId":"p1","quantity":2}`)

		w := env.do(http.MethodPatch, "/cart/items/p1", `{"quantity":7}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":7`)

		w = env.do(http.MethodDelete, "/cart/items/p1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})

	t.Run("requests without a session are rejected", func(t *testing.T) {
		env := newCartEnv(t)
		env.cookie = "unknown-session"

		w := env.do(http.MethodGet, "/cart", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCheckout(t *testing.T) {
	t.Run("places the order and clears the cart", func(t *testing.T) {
		env := newCartEnv(t)
		env.do(http.MethodPost, "/cart/items", `{"productId":"p1","quantity":2}`)
		env.do(http.MethodPost, "/cart/items", `{"productId":"p2","quantity":1}`)

		w := env.do(http.MethodPost, "/cart/checkout", "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "order-1")

		require.Len(t, env.placer.placed, 1)
		o := env.placer.placed[0]
		assert.Equal(t, "u1", o.UserID)
		assert.Equal(t, "Alice", o.CustomerName)
		assert.Equal(t, "12 Main St", o.CustomerAddress)
		assert.Equal(t, 177.50, o.Total)
		assert.Equal(t, orders.StatusOrdered, o.Status)

		w = env.do(http.MethodGet, "/cart", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})

	t.Run("empty cart", func(t *testing.T) {
		env := newCartEnv(t)

		w := env.do(http.MethodPost, "/cart/checkout", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("order write failure keeps the cart", func(t *testing.T) {
		env := newCartEnv(t)
		env.do(http.MethodPost, "/cart/items", `{"productId":"p1","quantity":2}`)
		env.placer.err = errors.New("backend down")

		w := env.do(http.MethodPost, "/cart/checkout", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)

		w = env.do(http.MethodGet, "/cart", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})
}
