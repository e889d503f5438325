// internal/app/features/students/handler.go
package students

import (
	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler carries the dependencies for student endpoints.
type Handler struct {
	DB     *mongo.Database
	Engine *enroll.Engine
	Sweep  *sweeper.Sweeper
	Log    *zap.Logger
}

// NewHandler constructs a students Handler.
func NewHandler(db *mongo.Database, engine *enroll.Engine, sweep *sweeper.Sweeper, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Engine: engine, Sweep: sweep, Log: logger}
}
