package storeinfo

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Source is the repo surface the handlers read and write through. The
// customer view and the owner editor are gated by their route groups.
type Source interface {
	Get(ctx context.Context) (*Info, error)
	Update(ctx context.Context, info Info) error
}

type Handler struct {
	src Source
}

func NewHandler(src Source) *Handler {
	return &Handler{src: src}
}

func (h *Handler) Register(shop, dashboard *gin.RouterGroup) {
	shop.GET("/store-info", h.get)
	dashboard.PUT("/store-info", h.update)
}

func (h *Handler) get(c *gin.Context) {
	info, err := h.src.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load store info"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "storeInfo": info})
}

func (h *Handler) update(c *gin.Context) {
	var info Info
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := h.src.Update(c.Request.Context(), info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "storeInfo": info})
}
