package pit

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/service/payroll"
	"github.com/thinhvd77/Tax/internal/store"
)

// Engine consolidation operations exposed over HTTP
type Engine interface {
	Calculate(ctx context.Context, files []model.UploadedFile, label string) (*payroll.Report, error)
	Preview(ctx context.Context, files []model.UploadedFile, label string) (*payroll.Preview, error)
	Update(ctx context.Context, existing, newBonus *model.UploadedFile, title string) (*payroll.Report, error)
}

// RunHistory read side of the run store
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRun(ctx context.Context, id string) (*model.Run, error)
}

// Handler PIT API handler
type Handler struct {
	engine  Engine
	runs    RunHistory
	log     *zap.Logger
	started time.Time
}

// NewHandler creates the handler. runs may be nil when no history is kept.
func NewHandler(engine Engine, runs RunHistory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, runs: runs, log: log, started: time.Now()}
}

// RegisterRoutes registers the PIT routes under router
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	pit := router.Group("/pit")
	pit.POST("/calculate", h.Calculate)
	pit.POST("/preview", h.Preview)
	pit.POST("/update", h.Update)

	// run history
	pit.GET("/runs", h.ListRuns)
	pit.GET("/runs/:id", h.GetRun)
}

// StatusResponse service status
type StatusResponse struct {
	Status     string `json:"status"`
	History    bool   `json:"history"`
	LastRunAt  string `json:"lastRunAt,omitempty"`
	UptimeSecs int64  `json:"uptimeSecs"`
}

// GetStatus GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Status:     "ok",
		History:    h.runs != nil,
		UptimeSecs: int64(time.Since(h.started).Seconds()),
	}
	if h.runs != nil {
		if runs, err := h.runs.ListRuns(c.Request.Context(), 1); err == nil && len(runs) > 0 {
			resp.LastRunAt = runs[0].CreatedAt.Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps engine errors to a status code: bad input 400, unknown run 404, anything else 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case model.IsInputError(err):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrRunNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
