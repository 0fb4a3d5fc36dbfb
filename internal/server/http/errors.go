package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailadvisor/backend/internal/common"
)

// writeError maps a service error to an HTTP status and a safe message.
// Authentication failures deliberately collapse to one uniform response.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "username already taken"})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, common.ErrorNegativeAmount):
		c.JSON(http.StatusBadRequest, gin.H{"message": "amount must be positive"})
	case errors.Is(err, common.ErrorPaymentFailed):
		c.JSON(http.StatusBadRequest, gin.H{"message": "payment failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
