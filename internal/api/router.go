package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/dsaingest/internal/api/handler"
	"github.com/timmy/dsaingest/internal/api/middleware"
	"github.com/timmy/dsaingest/internal/logger"
	"github.com/timmy/dsaingest/internal/repository"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	ledger *repository.LedgerRepository,
	statements *repository.StatementRepository,
	log *logger.Logger,
	mode string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	runHandler := handler.NewRunHandler(ledger, statements)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs", runHandler.ListByDate)
		v1.GET("/runs/latest", runHandler.Latest)
	}

	return r
}
