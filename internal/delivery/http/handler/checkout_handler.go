package handler

import (
	"io"
	"net/http"

	"storefront/internal/usecase/checkout"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds gateway notification payloads.
const maxWebhookBody = 64 << 10

var signatureHeaders = []string{"X-Paystack-Signature", "X-Signature"}

type CheckoutHandler struct {
	service *checkout.Service
}

func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", h.Checkout)
}

// RegisterPaymentRoutes adds the unauthenticated gateway endpoints.
func (h *CheckoutHandler) RegisterPaymentRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.GET("/callback", h.Callback)
		payments.POST("/webhook", h.Webhook)
	}
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	me, ok := currentCaller(c)
	if !ok {
		return
	}

	var req checkout.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Checkout(c.Request.Context(), me.ID, me.Email, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order created, continue to payment", resp)
}

// Callback is where the gateway redirects the customer after payment.
func (h *CheckoutHandler) Callback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}

	result, err := h.service.HandleCallback(c.Request.Context(), reference)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, paymentMessage(result), result)
}

func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var signature string
	for _, header := range signatureHeaders {
		if signature = c.GetHeader(header); signature != "" {
			break
		}
	}

	result, err := h.service.HandleWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if result == nil {
		utils.SuccessResponse(c, http.StatusOK, "Event ignored", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, paymentMessage(result), result)
}

func paymentMessage(result *checkout.PaymentResult) string {
	switch result.Order.Status {
	case "completed":
		return "Payment successful, order completed"
	case "cancelled":
		return "Payment was not completed, order cancelled"
	default:
		return "Payment is still pending"
	}
}
