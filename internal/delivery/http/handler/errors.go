package handler

import (
	"errors"
	"net/http"

	domainCart "storefront/internal/domain/cart"
	domainOrder "storefront/internal/domain/order"
	"storefront/internal/domain/payment"
	domainProduct "storefront/internal/domain/product"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var codeStatus = map[string]int{
	appErrors.CodeValidation:        http.StatusBadRequest,
	appErrors.CodeWeakPassword:      http.StatusBadRequest,
	appErrors.CodeInvalidToken:      http.StatusBadRequest,
	appErrors.CodeEmptyCart:         http.StatusBadRequest,
	appErrors.CodeOutOfStock:        http.StatusConflict,
	appErrors.CodeInsufficientStock: http.StatusConflict,
	appErrors.CodeInvalidTransition: http.StatusConflict,
	appErrors.CodePaymentInit:       http.StatusBadGateway,
	appErrors.CodePaymentVerify:     http.StatusBadGateway,
	appErrors.CodeForbidden:         http.StatusForbidden,
}

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		if status, ok := codeStatus[appErr.Code]; ok {
			utils.ErrorResponse(c, status, appErr.Message)
			return
		}
	}

	switch {
	case errors.Is(err, domainUser.ErrUserAlreadyExists),
		errors.Is(err, domainProduct.ErrProductAlreadyExists):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, appErrors.ErrInvalidToken),
		errors.Is(err, appErrors.ErrUnauthorized),
		errors.Is(err, payment.ErrInvalidSignature):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domainUser.ErrUserInactive),
		errors.Is(err, appErrors.ErrInsufficientPermissions):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domainUser.ErrUserNotFound),
		errors.Is(err, domainProduct.ErrProductNotFound),
		errors.Is(err, domainOrder.ErrOrderNotFound),
		errors.Is(err, domainCart.ErrItemNotFound),
		errors.Is(err, payment.ErrUnknownReference):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domainProduct.ErrInsufficientStock):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, domainProduct.ErrInvalidPrice),
		errors.Is(err, domainProduct.ErrInvalidStock),
		errors.Is(err, appErrors.ErrInvalidEmail):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case appErr != nil:
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
	default:
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
