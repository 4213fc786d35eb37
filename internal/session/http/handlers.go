package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/session"
	"github.com/kotamart/storefront-backend/internal/session/policy"
	"github.com/kotamart/storefront-backend/internal/users"
)

const settleTimeout = 5 * time.Second

type Handler struct {
	mgr *session.Manager
	dir session.Directory
}

func NewHandler(mgr *session.Manager, dir session.Directory) *Handler {
	return &Handler{mgr: mgr, dir: dir}
}

// Login verifies credentials, then waits for the provider's change
// notification to populate the session before answering.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	st := h.ensureStore(c)
	if err := st.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(statusForAuthErr(err), gin.H{"ok": false, "error": identity.UserMessage(err)})
		return
	}

	sess := awaitSettled(st, settleTimeout)
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

func (h *Handler) SignUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	st := h.ensureStore(c)
	if err := st.SignUp(c.Request.Context(), req.Email, req.Password, strings.TrimSpace(req.Name)); err != nil {
		c.JSON(statusForAuthErr(err), gin.H{"ok": false, "error": identity.UserMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "session": st.Current()})
}

// Logout invalidates the provider session, disposes the store and
// clears the cookie. Clients land on /login.
func (h *Handler) Logout(c *gin.Context) {
	if st, ok := CurrentStore(c); ok {
		_ = st.Logout(c.Request.Context())
	}
	if sid := c.GetString(ctxSessionID); sid != "" {
		h.mgr.Dispose(sid)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{"ok": true, "redirect": policy.RouteLogin})
}

func (h *Handler) Refresh(c *gin.Context) {
	st, ok := CurrentStore(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}

	if err := st.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": identity.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": st.Current()})
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": CurrentSession(c)})
}

// UpdateProfile applies a profile edit and refreshes the session. The
// profile-completion flag is derived from the submitted contact
// details, never sent by the client, and the update shape cannot carry
// a role.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	u := SessionUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = u.Name
	}
	address := strings.TrimSpace(req.Address)
	phone := strings.TrimSpace(req.Phone)

	update := users.ProfileUpdate{
		Name:         name,
		Address:      address,
		Phone:        phone,
		InfoComplete: address != "" && phone != "",
	}

	if _, err := h.dir.UpdateProfile(c.Request.Context(), u.UID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not update profile"})
		return
	}

	if st, ok := CurrentStore(c); ok {
		if err := st.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": identity.UserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "session": st.Current()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ResendVerification re-sends the verification email for the current
// identity.
func (h *Handler) ResendVerification(c *gin.Context) {
	st, ok := CurrentStore(c)
	if !ok || !st.Current().Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}

	if err := st.SendVerificationEmail(c.Request.Context()); err != nil {
		c.JSON(statusForAuthErr(err), gin.H{"ok": false, "error": identity.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RouteVerdict answers, for a page route, whether the current session
// may see it and where to go otherwise. This is the navigation
// contract every page consults instead of re-deriving rules.
func (h *Handler) RouteVerdict(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		path = policy.RouteHome
	}

	v := policy.Evaluate(CurrentSession(c), path)
	c.JSON(http.StatusOK, verdictResp{OK: true, State: v.Kind.String(), Redirect: v.Target})
}

// ensureStore reuses the request's store or starts a new one and sets
// the cookie.
func (h *Handler) ensureStore(c *gin.Context) *session.Store {
	if st, ok := CurrentStore(c); ok {
		return st
	}

	sid, st := h.mgr.Create()
	c.SetCookie(SessionCookie, sid, 0, "/", "", false, true)
	c.Set(ctxSessionID, sid)
	c.Set(ctxSessionStore, st)
	return st
}

func statusForAuthErr(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, identity.ErrMisconfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// awaitSettled waits until the store publishes a session that is
// neither loading nor mid-profile-fetch.
func awaitSettled(st *session.Store, timeout time.Duration) session.Session {
	id, ch := st.Subscribe()
	defer st.Unsubscribe(id)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return session.Session{}
			}
			if !s.Loading && !(s.Authenticated() && s.User == nil) {
				return s
			}
		case <-deadline.C:
			return st.Current()
		}
	}
}
