package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kotamart/storefront-backend/internal/orders"
	"github.com/kotamart/storefront-backend/internal/products"
	sessionhttp "github.com/kotamart/storefront-backend/internal/session/http"
)

// Catalog is the product lookup checkout and add-to-cart need.
type Catalog interface {
	Get(ctx context.Context, id string) (*products.Product, error)
}

// OrderPlacer persists a finished order.
type OrderPlacer interface {
	Create(ctx context.Context, o *orders.Order) (string, error)
}

type Handler struct {
	store   *Store
	catalog Catalog
	orders  OrderPlacer
}

func NewHandler(store *Store, catalog Catalog, orderPlacer OrderPlacer) *Handler {
	return &Handler{store: store, catalog: catalog, orders: orderPlacer}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/cart", h.get)
	rg.POST("/cart/items", h.addItem)
	rg.PATCH("/cart/items/:productId", h.setQuantity)
	rg.DELETE("/cart/items/:productId", h.removeItem)
	rg.DELETE("/cart", h.clear)
	rg.POST("/cart/checkout", h.checkout)
}

func (h *Handler) get(c *gin.Context) {
	cart, ok := h.load(c)
	if !ok {
		return
	}
	respond(c, cart)
}

type addItemReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "quantity must be positive"})
		return
	}

	p, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if errors.Is(err, products.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load product"})
		return
	}

	cart, ok := h.load(c)
	if !ok {
		return
	}
	cart.Add(*p, req.Quantity)
	h.save(c, cart)
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setQuantity(c *gin.Context) {
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	cart, ok := h.load(c)
	if !ok {
		return
	}
	cart.SetQuantity(c.Param("productId"), req.Quantity)
	h.save(c, cart)
}

func (h *Handler) removeItem(c *gin.Context) {
	cart, ok := h.load(c)
	if !ok {
		return
	}
	cart.Remove(c.Param("productId"))
	h.save(c, cart)
}

func (h *Handler) clear(c *gin.Context) {
	sid := sessionhttp.SessionID(c)
	if err := h.store.Clear(c.Request.Context(), sid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not clear cart"})
		return
	}
	respond(c, &Cart{})
}

// checkout turns the cart into an order. The caller's profile record
// supplies the contact snapshot; a missing record fails the checkout.
// The cart is cleared only after the order is stored, so a failed
// write leaves it intact.
func (h *Handler) checkout(c *gin.Context) {
	u := sessionhttp.SessionUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}

	cart, ok := h.load(c)
	if !ok {
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "cart is empty"})
		return
	}

	items := make([]orders.Item, 0, len(cart.Items))
	for _, e := range cart.Items {
		items = append(items, orders.Item{
			ProductID: e.Product.ID,
			Name:      e.Product.Name,
			Quantity:  e.Quantity,
			Price:     e.Product.Price,
		})
	}

	o, err := orders.Build(u, items)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	id, err := h.orders.Create(c.Request.Context(), o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not place order"})
		return
	}

	if err := h.store.Clear(c.Request.Context(), sessionhttp.SessionID(c)); err != nil {
		// The order exists; an uncleared cart is the lesser problem.
		c.JSON(http.StatusOK, gin.H{"ok": true, "orderId": id})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "orderId": id})
}

func (h *Handler) load(c *gin.Context) (*Cart, bool) {
	sid := sessionhttp.SessionID(c)
	if sid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return nil, false
	}

	cart, err := h.store.Get(c.Request.Context(), sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load cart"})
		return nil, false
	}
	return cart, true
}

func (h *Handler) save(c *gin.Context, cart *Cart) {
	sid := sessionhttp.SessionID(c)
	if err := h.store.Save(c.Request.Context(), sid, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not save cart"})
		return
	}
	respond(c, cart)
}

func respond(c *gin.Context, cart *Cart) {
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"cart":  cart,
		"total": cart.Total(),
		"count": cart.Count(),
	})
}
