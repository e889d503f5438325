// internal/app/features/groups/handler.go
package groups

import (
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler carries the dependencies for group endpoints.
type Handler struct {
	DB     *mongo.Database
	Engine *enroll.Engine
	Sweep  *sweeper.Sweeper
	Log    *zap.Logger
}

// NewHandler constructs a groups Handler.
func NewHandler(db *mongo.Database, engine *enroll.Engine, sweep *sweeper.Sweeper, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Engine: engine, Sweep: sweep, Log: logger}
}

// pathID parses a hex ObjectID URL parameter, writing the error response
// itself.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}
