package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Uploader is the slice of the object store uploads need.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

type Handler struct {
	repo    *Repo
	uploads Uploader
}

func NewHandler(repo *Repo, uploads Uploader) *Handler {
	return &Handler{repo: repo, uploads: uploads}
}

// Register mounts the read endpoints on the shop group and the write
// endpoints on the owner-gated dashboard group.
func (h *Handler) Register(shop, dashboard *gin.RouterGroup) {
	shop.GET("/products", h.list)
	shop.GET("/products/:id", h.get)

	dashboard.POST("/products", h.create)
	dashboard.PUT("/products/:id", h.update)
	dashboard.DELETE("/products/:id", h.delete)
	dashboard.POST("/products/:id/image", h.uploadImage)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "products": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product": p})
}

func (h *Handler) create(c *gin.Context) {
	var p Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, err := h.repo.Create(c.Request.Context(), &p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id, "product": p})
}

func (h *Handler) update(c *gin.Context) {
	var u Update
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	err := h.repo.Update(c.Request.Context(), c.Param("id"), u)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) uploadImage(c *gin.Context) {
	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "image storage not configured"})
		return
	}

	id := c.Param("id")

	if _, err := h.repo.Get(c.Request.Context(), id); errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "product not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load product"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("products/%s/%s%s", id, uuid.New().String(), path.Ext(header.Filename))
	url, err := h.uploads.Upload(c.Request.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not store image"})
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, Update{Image: &url}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not attach image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url})
}
