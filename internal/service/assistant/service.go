// Package assistant turns a stored emission log into reduction advice using
// a text generation provider.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
)

const (
	generateTimeout = 30 * time.Second
	promptHeader    = "Based on the following carbon emission log, give advice to reduce emissions:"
)

var (
	// ErrNoGenerator is returned when no provider is configured.
	ErrNoGenerator = errors.New("no text generator configured")
	// ErrGeneration wraps failures reported by the text generator.
	ErrGeneration = errors.New("suggestion generation failed")
)

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LogReader loads a log the caller owns, with its activities.
type LogReader interface {
	GetLog(ctx context.Context, userID, logID string) (models.LogDetail, error)
}

// Suggestion is the advice returned for a log.
type Suggestion struct {
	LogID  string `json:"logId"`
	Advice string `json:"advice"`
	Cached bool   `json:"cached"`
}

// Service builds prompts from logs and caches the answers.
type Service struct {
	logs      LogReader
	generator TextGenerator
	cache     *cache.Cache
	logger    *zap.Logger
}

// NewService wires the assistant. generator may be nil, in which case
// Suggest returns ErrNoGenerator.
func NewService(logs LogReader, generator TextGenerator, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		logs:      logs,
		generator: generator,
		cache:     cache.New(ttl, 2*ttl),
		logger:    logger,
	}
}

// Suggest returns advice for one of the user's logs.
func (s *Service) Suggest(ctx context.Context, userID, logID string) (Suggestion, error) {
	if s.generator == nil {
		return Suggestion{}, ErrNoGenerator
	}

	detail, err := s.logs.GetLog(ctx, userID, logID)
	if err != nil {
		return Suggestion{}, err
	}

	key := cacheKey(detail.Log)
	if advice, ok := s.cache.Get(key); ok {
		return Suggestion{LogID: logID, Advice: advice.(string), Cached: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	advice, err := s.generator.Generate(ctx, BuildPrompt(detail))
	if err != nil {
		s.logger.Error("failed to generate suggestions", zap.String("log_id", logID), zap.Error(err))
		return Suggestion{}, fmt.Errorf("%w: log %s: %w", ErrGeneration, logID, err)
	}

	s.cache.Set(key, advice, cache.DefaultExpiration)
	return Suggestion{LogID: logID, Advice: advice}, nil
}

// BuildPrompt renders the advice prompt for a log.
func BuildPrompt(detail models.LogDetail) string {
	a := detail.Activities

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Total emissions: %.4f kg\n", detail.Log.TotalEmissionsKg)
	fmt.Fprintf(&b, "Category: %s\n", orDash(detail.Log.Category))
	fmt.Fprintf(&b, "Description: %s\n", orDash(detail.Log.Description))
	fmt.Fprintf(&b, "Trips: %d, Electricity: %d, Waste: %d, Fuel: %d",
		len(a.VehicleTrips), len(a.ElectricityUses), len(a.WasteDisposals), len(a.FuelCombustions))
	return b.String()
}

func cacheKey(log models.EmissionLog) string {
	return fmt.Sprintf("%s|%.4f", log.ID, log.TotalEmissionsKg)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
