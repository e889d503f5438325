// internal/app/features/students/list.go
package students

import (
	"context"
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const listLimit = 500

// HandleList handles GET /students.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := studentstore.New(h.DB)
	list, err := store.List(ctx, listLimit)
	if err != nil {
		h.Log.Error("list students failed", zap.Error(err))
		respond.Err(w, err)
		return
	}
	if list == nil {
		list = []models.Student{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleView handles GET /students/{id}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	store := studentstore.New(h.DB)
	st, err := store.GetByID(ctx, id)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Warn("get student failed", zap.Error(err))
		}
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// pathID parses the {id} URL parameter, writing the error response itself.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad student id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
