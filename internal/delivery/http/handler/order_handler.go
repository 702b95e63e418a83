package handler

import (
	"net/http"

	"storefront/internal/infrastructure/events"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/usecase/order"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service *order.Service
	hub     *events.Hub
}

func NewOrderHandler(service *order.Service, hub *events.Hub) *OrderHandler {
	return &OrderHandler{service: service, hub: hub}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", h.ListMyOrders)
		orders.GET("/:order_id", h.GetOrder)
		orders.POST("/:order_id/cancel", h.CancelOrder)
		orders.GET("/:order_id/ws", h.WatchOrder)
	}
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	var req order.ListOrdersRequest
	if !bindQuery(c, &req) {
		return
	}

	orders, err := h.service.ListMyOrders(c.Request.Context(), me.ID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder returns the receipt for one order.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id", "order ID")
	if !ok {
		return
	}

	receipt, err := h.service.GetOrder(c.Request.Context(), me.ID, me.Role, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved successfully", receipt)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id", "order ID")
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), me.ID, me.Role, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order cancelled", resp)
}

// WatchOrder upgrades to a websocket that streams status changes for one order.
func (h *OrderHandler) WatchOrder(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id", "order ID")
	if !ok {
		return
	}

	sub := h.hub.Watch(orderID)
	current, err := h.service.StatusSnapshot(c.Request.Context(), me.ID, me.Role, orderID)
	if err != nil {
		sub.Close()
		respondWithError(c, err)
		return
	}

	// The upgrader writes its own HTTP error when the handshake fails.
	if err := h.hub.Serve(c.Writer, c.Request, sub, current); err != nil {
		logger.Debug("Order status stream not opened",
			zap.String("order_id", orderID.String()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
}
