package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	CourseID    string         `json:"courseId" binding:"required"`
	PaymentInfo map[string]any `json:"payment_info"`
}

func (h HandlerSet) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.orders.Create(c.Request.Context(), user, req.CourseID, req.PaymentInfo)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"order": result.Order})
}

func (h HandlerSet) GetOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders})
}
