// internal/app/features/groups/members.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.uber.org/zap"
)

type attachRequest struct {
	Status   string     `json:"status"`
	JoinedAt *time.Time `json:"joined_at"`
	Note     string     `json:"note"`
}

// HandleAttach handles PUT /groups/{id}/members/{studentID}: upsert of one
// membership row. 201 when the row is new, 200 when an existing row was
// updated.
func (h *Handler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	req := attachRequest{Status: string(models.MembershipActive)}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.Status == "" {
			req.Status = string(models.MembershipActive)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	st, created, err := h.Engine.AttachOrUpdate(ctx, groupID, studentID,
		models.MembershipStatus(req.Status), req.JoinedAt, htmlsanitize.Note(req.Note))
	if err != nil {
		h.Log.Info("attach rejected",
			zap.String("group_id", groupID.Hex()),
			zap.String("student_id", studentID.Hex()),
			zap.Error(err))
		respond.Err(w, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	respond.JSON(w, code, st)
}

// HandleDetach handles DELETE /groups/{id}/members/{studentID}.
func (h *Handler) HandleDetach(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	st, err := h.Engine.Detach(ctx, groupID, studentID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}
