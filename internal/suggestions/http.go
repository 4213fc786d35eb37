package suggestions

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(dashboard *gin.RouterGroup) {
	dashboard.GET("/suggestions/reorder", h.reorder)
}

func (h *Handler) reorder(c *gin.Context) {
	text, err := h.svc.Reorder(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not build suggestions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "suggestions": text})
}
