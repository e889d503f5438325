// internal/app/features/groups/groupcrud.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	groupstore "github.com/dalemusser/enrollhub/internal/app/store/groups"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const listLimit = 500

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	Status      string `json:"status"`
	MaxStudents int    `json:"max_students"`
}

// groupUpdateRequest uses pointers so PATCH can tell an omitted field from an
// explicit empty value. Omitted fields are left untouched.
type groupUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Schedule    *string `json:"schedule"`
	Status      *string `json:"status"`
	MaxStudents *int    `json:"max_students"`
}

// HandleCreate handles POST /groups.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "name is required"})
		return
	}
	if req.MaxStudents <= 0 {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "max_students must be positive"})
		return
	}
	if req.Status != "" && !models.ValidGroupStatus(models.GroupStatus(req.Status)) {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unknown group status: " + req.Status})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := groupstore.New(h.DB)
	created, err := store.Create(ctx, models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Schedule:    req.Schedule,
		Status:      models.GroupStatus(req.Status),
		MaxStudents: req.MaxStudents,
	})
	if err != nil {
		if err == groupstore.ErrDuplicateGroupName {
			respond.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		h.Log.Error("create group failed", zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, created)
}

// HandleList handles GET /groups.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := groupstore.New(h.DB)
	list, err := store.List(ctx, listLimit)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		respond.Err(w, err)
		return
	}
	if list == nil {
		list = []models.Group{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleView handles GET /groups/{id}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := groupstore.New(h.DB)
	g, err := store.GetByID(ctx, id)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Warn("get group failed", zap.Error(err))
		}
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

// HandleUpdate handles PATCH /groups/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req groupUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "name must not be empty"})
			return
		}
		req.Name = &trimmed
	}
	if req.MaxStudents != nil && *req.MaxStudents <= 0 {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "max_students must be positive"})
		return
	}
	var stat *models.GroupStatus
	if req.Status != nil {
		if !models.ValidGroupStatus(models.GroupStatus(*req.Status)) {
			respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unknown group status: " + *req.Status})
			return
		}
		s := models.GroupStatus(*req.Status)
		stat = &s
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := groupstore.New(h.DB)
	err := store.UpdateInfo(ctx, id, req.Name, req.Description, req.Schedule, stat, req.MaxStudents)
	if err != nil {
		if err == groupstore.ErrDuplicateGroupName {
			respond.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		h.Log.Error("update group failed", zap.Error(err))
		respond.Err(w, err)
		return
	}

	g, err := store.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

// HandleDelete handles DELETE /groups/{id}. The engine completes the
// membership cascade before the group document goes away.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	detached, err := h.Engine.DeleteGroup(ctx, id)
	if err != nil {
		h.Log.Warn("delete group failed", zap.String("group_id", id.Hex()), zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"deleted":           id.Hex(),
		"detached_students": detached,
	})
}
