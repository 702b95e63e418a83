package handler

import (
	"net/http"

	"storefront/internal/usecase/catalog"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service *catalog.Service
}

func NewCatalogHandler(service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/categories", h.Categories)
		products.GET("/:product_id", h.GetProduct)
	}
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var req catalog.ProductFilterRequest
	if !bindQuery(c, &req) {
		return
	}

	products, err := h.service.ListProducts(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "product_id", "product ID")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}
