package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) checkout(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if u := currentUser(c); u != nil {
		id := u.ID
		in.UserID = &id
	}
	o, err := h.deps.OrderSvc.Checkout(c.Request.Context(), cartKey(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *handlers) checkoutRegister(c *gin.Context) {
	var in ordersvc.RegisterCustomer
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.deps.OrderSvc.CheckoutRegister(c.Request.Context(), cartKey(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.Mine(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilOrders(orders))
}

// getMyOrder lets admins read any order and shoppers only their own.
func (h *handlers) getMyOrder(c *gin.Context) {
	u := currentUser(c)
	var (
		o   *domain.Order
		err error
	)
	if u.IsAdmin() {
		o, err = h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	} else {
		o, err = h.deps.OrderSvc.GetForUser(c.Request.Context(), c.Param("id"), u.ID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilOrders(orders))
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) markPaid(c *gin.Context) {
	o, err := h.deps.OrderSvc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) markDelivered(c *gin.Context) {
	o, err := h.deps.OrderSvc.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) stats(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		days = v
	}
	s, err := h.deps.OrderSvc.Stats(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func nonNilOrders(orders []domain.Order) []domain.Order {
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}
