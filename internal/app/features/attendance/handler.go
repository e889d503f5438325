// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	groupstore "github.com/dalemusser/enrollhub/internal/app/store/groups"
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"github.com/dalemusser/enrollhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler carries the dependencies for attendance endpoints.
type Handler struct {
	DB     *mongo.Database
	Engine *enroll.Engine
	Log    *zap.Logger
}

// NewHandler constructs an attendance Handler.
func NewHandler(db *mongo.Database, engine *enroll.Engine, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Engine: engine, Log: logger}
}

type recordPayload struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

type upsertRequest struct {
	Date    time.Time       `json:"date"`
	Records []recordPayload `json:"records"`
}

// HandleUpsert handles POST /groups/{id}/attendance: one day's roster,
// merged idempotently into the group's log.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad group id"})
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Date.IsZero() {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "date is required"})
		return
	}

	records := make([]enroll.AttendanceRecord, 0, len(req.Records))
	for _, p := range req.Records {
		sid, err := primitive.ObjectIDFromHex(p.StudentID)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad student id: " + p.StudentID})
			return
		}
		records = append(records, enroll.AttendanceRecord{
			StudentID: sid,
			Status:    models.AttendanceStatus(p.Status),
			Note:      htmlsanitize.Note(p.Note),
		})
	}

	markedBy := ""
	if op, ok := auth.CurrentOperator(r); ok {
		markedBy = op.Name
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.Engine.UpsertAttendance(ctx, groupID, req.Date, records, markedBy)
	if err != nil {
		h.Log.Info("attendance upsert rejected",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, group.Attendance)
}

// HandleList handles GET /groups/{id}/attendance.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad group id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := groupstore.New(h.DB)
	g, err := store.GetByID(ctx, groupID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	if g.Attendance == nil {
		g.Attendance = []models.AttendanceEntry{}
	}
	respond.JSON(w, http.StatusOK, g.Attendance)
}
