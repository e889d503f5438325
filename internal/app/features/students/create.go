// internal/app/features/students/create.go
package students

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// HandleCreate handles POST /students.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "full_name is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := studentstore.New(h.DB)
	created, err := store.Create(ctx, models.Student{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		h.Log.Error("create student failed", zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, created)
}
