package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/carbontracker/internal/repository"
	"github.com/mamadbah2/carbontracker/internal/service/assistant"
)

type stubSuggester struct {
	suggestion assistant.Suggestion
	err        error
}

func (s stubSuggester) Suggest(context.Context, string, string) (assistant.Suggestion, error) {
	return s.suggestion, s.err
}

func serveSuggestion(t *testing.T, svc Suggester) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/logs/:id/suggestions", RequireIdentity("X-User-ID"), NewSuggestionHandler(svc, nil).Suggest)

	req := httptest.NewRequest(http.MethodPost, "/logs/log-1/suggestions", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSuggestionStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", want: http.StatusOK},
		{name: "provider failure", err: fmt.Errorf("%w: log log-1: %w", assistant.ErrGeneration, errors.New("upstream 500")), want: http.StatusBadGateway},
		{name: "store failure", err: errors.New("database is locked"), want: http.StatusInternalServerError},
		{name: "missing log", err: repository.ErrNotFound, want: http.StatusNotFound},
		{name: "no provider", err: assistant.ErrNoGenerator, want: http.StatusServiceUnavailable},
		{name: "client went away", err: fmt.Errorf("%w: %w", assistant.ErrGeneration, context.Canceled), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveSuggestion(t, stubSuggester{suggestion: assistant.Suggestion{LogID: "log-1", Advice: "Walk."}, err: tt.err})
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want >= http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"failed to generate suggestions"}`, rec.Body.String())
			}
		})
	}
}
