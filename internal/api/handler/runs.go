package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/dsaingest/internal/repository"
)

// RunHandler exposes read-only views over the ingestion ledger.
type RunHandler struct {
	ledger     *repository.LedgerRepository
	statements *repository.StatementRepository
}

// NewRunHandler creates a new run handler.
// Parameters:
//   - ledger: ledger repository for run queries.
//   - statements: statement repository for per-run row counts.
// Returns:
//   - *RunHandler: handler instance.
func NewRunHandler(ledger *repository.LedgerRepository, statements *repository.StatementRepository) *RunHandler {
	return &RunHandler{ledger: ledger, statements: statements}
}

// ListByDate returns every run (failed and retried included) for one date.
// Query parameter: date=YYYY-MM-DD.
func (h *RunHandler) ListByDate(c *gin.Context) {
	day := c.Query("date")
	fileDate, err := time.Parse("2006-01-02", day)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	runs, err := h.ledger.GetByDate(c.Request.Context(), fileDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  day,
		"count": len(runs),
		"runs":  runs,
	})
}

// Latest returns the most recently started run, with its loaded row count.
func (h *RunHandler) Latest(c *gin.Context) {
	run, err := h.ledger.GetLatest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded"})
		return
	}

	loaded, err := h.statements.CountByRun(c.Request.Context(), run.UUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":         run,
		"rows_loaded": loaded,
	})
}
