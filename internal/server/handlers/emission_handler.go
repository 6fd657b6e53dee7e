package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/service/emissions"
)

// EmissionService is the log use-case surface the handler depends on.
type EmissionService interface {
	CreateLog(ctx context.Context, userID string, in emissions.LogInput) (models.EmissionLog, error)
	CreateQuick(ctx context.Context, userID string, req models.QuickEntryRequest) (models.EmissionLog, error)
	ListLogs(ctx context.Context, userID string) ([]models.EmissionLog, error)
	GetLog(ctx context.Context, userID, logID string) (models.LogDetail, error)
	Recompute(ctx context.Context, userID, logID string) (models.EmissionLog, error)

	AddVehicleTrip(ctx context.Context, userID string, in emissions.VehicleTripInput) (models.VehicleTrip, error)
	AddElectricityUse(ctx context.Context, userID string, in emissions.ElectricityUseInput) (models.ElectricityUse, error)
	AddWasteDisposal(ctx context.Context, userID string, in emissions.WasteDisposalInput) (models.WasteDisposal, error)
	AddFuelCombustion(ctx context.Context, userID string, in emissions.FuelCombustionInput) (models.FuelCombustion, error)

	ListVehicleTrips(ctx context.Context, userID, logID string) ([]models.VehicleTrip, error)
	ListElectricityUses(ctx context.Context, userID, logID string) ([]models.ElectricityUse, error)
	ListWasteDisposals(ctx context.Context, userID, logID string) ([]models.WasteDisposal, error)
	ListFuelCombustions(ctx context.Context, userID, logID string) ([]models.FuelCombustion, error)
}

// EmissionHandler serves emission logs and their activities.
type EmissionHandler struct {
	svc    EmissionService
	logger *zap.Logger
}

// NewEmissionHandler constructs the HTTP handler adapter.
func NewEmissionHandler(svc EmissionService, logger *zap.Logger) *EmissionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmissionHandler{svc: svc, logger: logger}
}

type createLogRequest struct {
	Date             string   `json:"date"`
	TotalEmissionsKg *float64 `json:"totalEmissionsKg"`
	CO2e             *float64 `json:"co2e"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
}

func (r createLogRequest) input() (emissions.LogInput, error) {
	in := emissions.LogInput{
		TotalEmissionsKg: r.TotalEmissionsKg,
		CO2e:             r.CO2e,
		Category:         r.Category,
		Description:      r.Description,
	}
	if r.Date == "" {
		return in, nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, r.Date); err == nil {
			in.Date = d
			return in, nil
		}
	}
	return in, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", r.Date)
}

// CreateLog stores an itemized log.
func (h *EmissionHandler) CreateLog(c *gin.Context) {
	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in, err := req.input()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log, err := h.svc.CreateLog(c.Request.Context(), UserID(c), in)
	if err != nil {
		respondError(c, h.logger, "failed to create log", err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

// CreateQuick stores a single-category log computed from the payload.
func (h *EmissionHandler) CreateQuick(c *gin.Context) {
	var req models.QuickEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid quick entry payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	log, err := h.svc.CreateQuick(c.Request.Context(), UserID(c), req)
	if err != nil {
		respondError(c, h.logger, "failed to create quick entry", err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

// ListLogs returns the caller's logs.
func (h *EmissionHandler) ListLogs(c *gin.Context) {
	logs, err := h.svc.ListLogs(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, h.logger, "failed to list logs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetLog returns one log with its activities.
func (h *EmissionHandler) GetLog(c *gin.Context) {
	detail, err := h.svc.GetLog(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "failed to load log", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Recompute re-sums a log's total on demand.
func (h *EmissionHandler) Recompute(c *gin.Context) {
	log, err := h.svc.Recompute(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "failed to recompute log", err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// AddVehicleTrip records a trip on the log in the path.
func (h *EmissionHandler) AddVehicleTrip(c *gin.Context) {
	var in emissions.VehicleTripInput
	if !h.bind(c, &in) {
		return
	}
	in.EmissionLogID = c.Param("id")

	trip, err := h.svc.AddVehicleTrip(c.Request.Context(), UserID(c), in)
	h.created(c, "failed to add vehicle trip", trip, err)
}

// AddElectricityUse records consumption on the log in the path.
func (h *EmissionHandler) AddElectricityUse(c *gin.Context) {
	var in emissions.ElectricityUseInput
	if !h.bind(c, &in) {
		return
	}
	in.EmissionLogID = c.Param("id")

	use, err := h.svc.AddElectricityUse(c.Request.Context(), UserID(c), in)
	h.created(c, "failed to add electricity use", use, err)
}

// AddWasteDisposal records a waste batch on the log in the path.
func (h *EmissionHandler) AddWasteDisposal(c *gin.Context) {
	var in emissions.WasteDisposalInput
	if !h.bind(c, &in) {
		return
	}
	in.EmissionLogID = c.Param("id")

	disposal, err := h.svc.AddWasteDisposal(c.Request.Context(), UserID(c), in)
	h.created(c, "failed to add waste disposal", disposal, err)
}

// AddFuelCombustion records burned fuel on the log in the path.
func (h *EmissionHandler) AddFuelCombustion(c *gin.Context) {
	var in emissions.FuelCombustionInput
	if !h.bind(c, &in) {
		return
	}
	in.EmissionLogID = c.Param("id")

	combustion, err := h.svc.AddFuelCombustion(c.Request.Context(), UserID(c), in)
	h.created(c, "failed to add fuel combustion", combustion, err)
}

// ListVehicleTrips returns the trips of the log in the path.
func (h *EmissionHandler) ListVehicleTrips(c *gin.Context) {
	trips, err := h.svc.ListVehicleTrips(c.Request.Context(), UserID(c), c.Param("id"))
	h.ok(c, "failed to list vehicle trips", trips, err)
}

// ListElectricityUses returns the electricity readings of the log in the path.
func (h *EmissionHandler) ListElectricityUses(c *gin.Context) {
	uses, err := h.svc.ListElectricityUses(c.Request.Context(), UserID(c), c.Param("id"))
	h.ok(c, "failed to list electricity uses", uses, err)
}

// ListWasteDisposals returns the waste batches of the log in the path.
func (h *EmissionHandler) ListWasteDisposals(c *gin.Context) {
	disposals, err := h.svc.ListWasteDisposals(c.Request.Context(), UserID(c), c.Param("id"))
	h.ok(c, "failed to list waste disposals", disposals, err)
}

// ListFuelCombustions returns the fuel records of the log in the path.
func (h *EmissionHandler) ListFuelCombustions(c *gin.Context) {
	combustions, err := h.svc.ListFuelCombustions(c.Request.Context(), UserID(c), c.Param("id"))
	h.ok(c, "failed to list fuel combustions", combustions, err)
}

func (h *EmissionHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid activity payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *EmissionHandler) created(c *gin.Context, msg string, body any, err error) {
	if err != nil {
		respondError(c, h.logger, msg, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *EmissionHandler) ok(c *gin.Context, msg string, body any, err error) {
	if err != nil {
		respondError(c, h.logger, msg, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
