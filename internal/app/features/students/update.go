// internal/app/features/students/update.go
package students

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// updateRequest uses pointers so PATCH can tell an omitted field from an
// explicit empty value. Omitted fields are left untouched.
type updateRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// HandleUpdate handles PATCH /students/{id}. Scalar fields only; membership
// changes go through PUT /students/{id}/memberships.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		if trimmed == "" {
			respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "full_name must not be empty"})
			return
		}
		req.FullName = &trimmed
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		req.Phone = &trimmed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := studentstore.New(h.DB)
	if err := store.UpdateInfo(ctx, id, req.FullName, req.Phone); err != nil {
		h.Log.Error("update student failed", zap.Error(err))
		respond.Err(w, err)
		return
	}

	st, err := store.GetByID(ctx, id)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Warn("reload student failed", zap.Error(err))
		}
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// HandleAddCoins handles POST /students/{id}/coins. The coin balance only
// ever grows through this endpoint.
func (h *Handler) HandleAddCoins(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Amount <= 0 {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "amount must be positive"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := studentstore.New(h.DB)
	if err := store.AddCoins(ctx, id, req.Amount); err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("add coins failed", zap.Error(err))
		}
		respond.Err(w, err)
		return
	}

	st, err := store.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}
