package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kotamart/storefront-backend/internal/session"
	"github.com/kotamart/storefront-backend/internal/session/policy"
	"github.com/kotamart/storefront-backend/internal/users"
)

const (
	// SessionCookie carries the opaque session ID.
	SessionCookie = "sf_session"

	ctxSessionID    = "session_id"
	ctxSessionStore = "session_store"
)

// WithSession resolves the session cookie to its store, if any. It
// never rejects; downstream guards decide what an absent session
// means.
func WithSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err == nil {
			if st, ok := mgr.Get(sid); ok {
				c.Set(ctxSessionID, sid)
				c.Set(ctxSessionStore, st)
			}
		}
		c.Next()
	}
}

// SessionID returns the request's session ID, or "".
func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// CurrentStore returns the request's session store, if one is attached.
func CurrentStore(c *gin.Context) (*session.Store, bool) {
	v, ok := c.Get(ctxSessionStore)
	if !ok {
		return nil, false
	}
	st, ok := v.(*session.Store)
	return st, ok
}

// CurrentSession returns the request's session view. Requests with no
// store see a signed-out session.
func CurrentSession(c *gin.Context) session.Session {
	if st, ok := CurrentStore(c); ok {
		return st.Current()
	}
	return session.Session{}
}

// SessionUser returns the profile record of the signed-in principal,
// or nil.
func SessionUser(c *gin.Context) *users.AppUser {
	return CurrentSession(c).User
}

// RequireRole rejects requests whose session lacks the given role. The
// response carries the redirect target the policy would choose, so
// clients can navigate instead of showing gated content.
func RequireRole(role users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)

		if !s.Authenticated() || s.User == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in", "redirect": policy.RouteLogin})
			c.Abort()
			return
		}
		if s.Role() != role {
			target, _ := policy.Decide(s, gatedRouteFor(role))
			if target == "" {
				target = policy.RouteHome
			}
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden", "redirect": target})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthenticated rejects requests with no signed-in principal.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if !s.Authenticated() || s.User == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in", "redirect": policy.RouteLogin})
			c.Abort()
			return
		}
		c.Next()
	}
}

func gatedRouteFor(role users.Role) string {
	if role == users.RoleOwner {
		return policy.RouteDashboard
	}
	return policy.RouteHome
}
