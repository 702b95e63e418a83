package handler

import (
	"net/http"

	"storefront/internal/usecase/admin"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service *admin.Service
}

func NewAdminHandler(service *admin.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics", h.Statistics)
	router.GET("/orders", h.ListOrders)
	router.GET("/customers", h.ListCustomers)

	products := router.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.PUT("/:product_id/stock", h.UpdateStock)
		products.PATCH("/:product_id/stock", h.AdjustStock)
	}
}

func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	var req admin.OrderFilterRequest
	if !bindQuery(c, &req) {
		return
	}

	orders, err := h.service.ListOrders(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *AdminHandler) ListCustomers(c *gin.Context) {
	var req admin.CustomerListRequest
	if !bindQuery(c, &req) {
		return
	}

	customers, err := h.service.ListCustomers(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Customers retrieved successfully", customers)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	var req admin.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), me.ID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Product created successfully", product)
}

func (h *AdminHandler) UpdateStock(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req admin.UpdateStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.service.UpdateStock(c.Request.Context(), me.ID, productID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stock updated successfully", product)
}

func (h *AdminHandler) AdjustStock(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req admin.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.service.AdjustStock(c.Request.Context(), me.ID, productID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stock adjusted successfully", product)
}
