package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/server/handlers"
)

// Dependencies bundles what the router mounts.
type Dependencies struct {
	Emissions      *handlers.EmissionHandler
	Factors        *handlers.FactorHandler
	Suggestions    *handlers.SuggestionHandler
	Metrics        http.Handler
	IdentityHeader string
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api", handlers.RequireIdentity(deps.IdentityHeader))
	api.GET("/factors", deps.Factors.List)

	logs := api.Group("/logs")
	logs.POST("", deps.Emissions.CreateLog)
	logs.GET("", deps.Emissions.ListLogs)
	logs.POST("/quick", deps.Emissions.CreateQuick)
	logs.GET("/:id", deps.Emissions.GetLog)
	logs.POST("/:id/recompute", deps.Emissions.Recompute)

	logs.POST("/:id/vehicle-trips", deps.Emissions.AddVehicleTrip)
	logs.GET("/:id/vehicle-trips", deps.Emissions.ListVehicleTrips)
	logs.POST("/:id/electricity", deps.Emissions.AddElectricityUse)
	logs.GET("/:id/electricity", deps.Emissions.ListElectricityUses)
	logs.POST("/:id/waste", deps.Emissions.AddWasteDisposal)
	logs.GET("/:id/waste", deps.Emissions.ListWasteDisposals)
	logs.POST("/:id/fuel", deps.Emissions.AddFuelCombustion)
	logs.GET("/:id/fuel", deps.Emissions.ListFuelCombustions)

	if deps.Suggestions != nil {
		logs.POST("/:id/suggestions", deps.Suggestions.Suggest)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_id", handlers.UserID(c)))
	}
}
