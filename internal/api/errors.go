package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/service"
	"vansales-service/internal/util"
)

// respondError maps service errors to status codes and the error body
func respondError(c *gin.Context, err error) {
	if validationErr, ok := service.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": validationErr,
		})
		return
	}

	if notFoundErr, ok := service.IsNotFoundError(err); ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": notFoundErr.Error(),
		})
		return
	}

	if conflictErr, ok := service.IsConflictError(err); ok {
		body := gin.H{
			"error":   conflictErr.Message,
			"details": conflictErr,
		}
		if conflictErr.ExistingID != 0 {
			body["order_id"] = conflictErr.ExistingID
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	var apiErr *bigcommerce.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "BigCommerce request failed",
			"details": apiErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGatewayNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrResyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}
