package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/service/production"
)

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func respondError(c *gin.Context, logger *zap.Logger, action string, err error) {
	var validation validator.ValidationErrors

	switch {
	case errors.Is(err, models.ErrInvalidDate), errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, production.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, production.ErrConfirmationRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "add confirm=true to proceed"})
	default:
		logger.Error("request failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}
