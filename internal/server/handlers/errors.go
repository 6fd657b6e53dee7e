package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/repository"
	"github.com/mamadbah2/carbontracker/internal/service/assistant"
	"github.com/mamadbah2/carbontracker/internal/service/emissions"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, emissions.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrMissingCategory), errors.Is(err, models.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrNoGenerator):
		return http.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrGeneration) && !errors.Is(err, context.Canceled):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}

	logger.Debug(msg, zap.Error(err), zap.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}
