package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/receiptwatch/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/user/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	entry, err := req.Entry()
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentPrincipal(c), entry)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewOrderResponse(*order))
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context(), CurrentPrincipal(c).UserID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, dto.NewOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/user/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentPrincipal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(*order))
}

// Notifications handles GET /api/user/orders/:id/notifications.
func (h *OrderHandler) Notifications(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := h.facade.OrderNotifications(c.Request.Context(), CurrentPrincipal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		response = append(response, dto.NewNotificationResponse(n))
	}
	c.JSON(http.StatusOK, response)
}

// Correct handles PATCH /api/user/orders/:id.
func (h *OrderHandler) Correct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	correction, err := req.Correction()
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.facade.CorrectOrder(c.Request.Context(), CurrentPrincipal(c), id, correction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(*order))
}
