// internal/app/features/students/delete.go
package students

import (
	"context"
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /students/{id}. The engine pulls the student
// out of every group mirror before this returns.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	if err := h.Engine.DeleteStudent(ctx, id); err != nil {
		h.Log.Warn("delete student failed", zap.String("student_id", id.Hex()), zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"deleted": id.Hex()})
}
