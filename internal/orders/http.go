package orders

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sessionhttp "github.com/kotamart/storefront-backend/internal/session/http"
)

// Store is the order persistence surface the handlers depend on.
type Store interface {
	ListAll(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, uid string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, s Status) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(shop, dashboard *gin.RouterGroup) {
	shop.GET("/orders", h.listMine)

	dashboard.GET("/orders", h.listAll)
	dashboard.PATCH("/orders/:id/status", h.updateStatus)
}

func (h *Handler) listMine(c *gin.Context) {
	u := sessionhttp.SessionUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}

	items, err := h.store.ListByUser(c.Request.Context(), u.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "orders": items})
}

func (h *Handler) listAll(c *gin.Context) {
	items, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "orders": items})
}

type statusReq struct {
	Status Status `json:"status" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not update order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
