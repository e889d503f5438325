// internal/app/features/sweep/handler.go
package sweep

import (
	"context"
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler exposes the balance sweep for operators: a forced run and a status
// read. The timer worker covers normal operation; this is for support work.
type Handler struct {
	Sweep *sweeper.Sweeper
	Log   *zap.Logger
}

// NewHandler constructs a sweep Handler.
func NewHandler(sweep *sweeper.Sweeper, logger *zap.Logger) *Handler {
	return &Handler{Sweep: sweep, Log: logger}
}

// HandleRun handles POST /sweep: a forced sweep. The overlap guard still
// applies; forcing only skips the throttle.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res := h.Sweep.MaybeRun(ctx, true)
	if res.Err != nil {
		respond.JSON(w, http.StatusInternalServerError, map[string]string{
			"outcome": string(res.Outcome),
			"error":   "sweep failed; see server logs",
		})
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// HandleStatus handles GET /sweep: when the sweep last started.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"last_run_at": h.Sweep.LastRunAt(),
	})
}
