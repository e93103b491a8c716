package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"omitempty,max=100000"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=100000"`
}

type mutationResponse struct {
	Result cart.Result  `json:"result"`
	Cart   cartsvc.View `json:"cart"`
}

func (h *handlers) mountCart(g *gin.RouterGroup) {
	g.GET("", h.getCart)
	g.DELETE("", h.clearCart)
	g.POST("/items", h.addItem)
	g.PUT("/items/:productId", h.setQuantity)
	g.DELETE("/items/:productId", h.removeItem)
}

func (h *handlers) newCart(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"key": h.deps.CartSvc.NewSession()})
}

func (h *handlers) getCart(c *gin.Context) {
	v, err := h.deps.CartSvc.Get(c.Request.Context(), cartKey(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	res, v, err := h.deps.CartSvc.Add(c.Request.Context(), cartKey(c), req.ProductID, qty)
	respondMutation(c, res, v, err)
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, v, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), cartKey(c), c.Param("productId"), *req.Quantity)
	respondMutation(c, res, v, err)
}

func (h *handlers) removeItem(c *gin.Context) {
	res, v, err := h.deps.CartSvc.Remove(c.Request.Context(), cartKey(c), c.Param("productId"))
	respondMutation(c, res, v, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	res, v, err := h.deps.CartSvc.Clear(c.Request.Context(), cartKey(c))
	respondMutation(c, res, v, err)
}

// respondMutation answers 200 for accepted or ignored mutations and 409 for
// stock rejections, always with the resulting cart.
func respondMutation(c *gin.Context, res cart.Result, v cartsvc.View, err error) {
	if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Outcome == cart.RejectedInsufficientStock {
		status = http.StatusConflict
	}
	c.JSON(status, mutationResponse{Result: res, Cart: v})
}
