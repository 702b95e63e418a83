package handler

import (
	"net/http"

	"storefront/internal/usecase/cart"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	service *cart.Service
}

func NewCartHandler(service *cart.Service) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cartGroup := router.Group("/cart")
	{
		cartGroup.GET("", h.GetCart)
		cartGroup.DELETE("", h.ClearCart)
		cartGroup.POST("/items", h.AddItem)
		cartGroup.PUT("/items/:product_id", h.SetQuantity)
		cartGroup.DELETE("/items/:product_id", h.RemoveItem)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), me.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", resp)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), me.ID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Item added to cart"
	if resp.Notice != "" {
		message = resp.Notice
	}
	utils.SuccessResponse(c, http.StatusOK, message, resp)
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req cart.SetQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.SetQuantity(c.Request.Context(), me.ID, productID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Cart updated", resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id", "product ID")
	if !ok {
		return
	}

	resp, err := h.service.RemoveItem(c.Request.Context(), me.ID, productID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Item removed from cart", resp)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	if err := h.service.Clear(c.Request.Context(), me.ID); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Cart cleared", nil)
}
