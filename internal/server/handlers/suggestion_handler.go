package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/service/assistant"
)

// Suggester produces reduction advice for a log.
type Suggester interface {
	Suggest(ctx context.Context, userID, logID string) (assistant.Suggestion, error)
}

// SuggestionHandler serves AI advice for emission logs.
type SuggestionHandler struct {
	svc    Suggester
	logger *zap.Logger
}

// NewSuggestionHandler constructs the handler.
func NewSuggestionHandler(svc Suggester, logger *zap.Logger) *SuggestionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionHandler{svc: svc, logger: logger}
}

// Suggest asks the configured provider for advice on the log in the path.
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	suggestion, err := h.svc.Suggest(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "failed to generate suggestions", err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
