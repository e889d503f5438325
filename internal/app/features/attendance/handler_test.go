package attendance_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"github.com/dalemusser/enrollhub/internal/app/features/attendance"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/dalemusser/enrollhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*attendance.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return attendance.NewHandler(db, enroll.NewEngine(db, logger), logger), db
}

func TestHandleUpsert_MarksOperator(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	engine := enroll.NewEngine(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Roll Call", 5)
	st := fixtures.CreateStudent(ctx, "Present Kid")
	if _, _, err := engine.AttachOrUpdate(ctx, group.ID, st.ID, models.MembershipActive, nil, ""); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	body := fmt.Sprintf(`{"date":"2026-04-01T10:00:00Z","records":[{"student_id":%q,"status":"present"}]}`, st.ID.Hex())
	req := testutil.WithOperator(
		httptest.NewRequest("POST", "/groups/"+group.ID.Hex()+"/attendance", strings.NewReader(body)), "admin")
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpsert(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var entries []models.AttendanceEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("body is not an entry list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	if entries[0].MarkedBy != "admin" {
		t.Errorf("MarkedBy: got %q, want %q", entries[0].MarkedBy, "admin")
	}
}

func TestHandleUpsert_Rejections(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Strict Roll", 5)
	outsider := fixtures.CreateStudent(ctx, "Outsider")

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing date", fmt.Sprintf(`{"records":[{"student_id":%q,"status":"present"}]}`, outsider.ID.Hex()), http.StatusUnprocessableEntity},
		{"bad student id", `{"date":"2026-04-01T10:00:00Z","records":[{"student_id":"nope","status":"present"}]}`, http.StatusBadRequest},
		{"empty batch", `{"date":"2026-04-01T10:00:00Z","records":[]}`, http.StatusUnprocessableEntity},
		{"non-member", fmt.Sprintf(`{"date":"2026-04-01T10:00:00Z","records":[{"student_id":%q,"status":"present"}]}`, outsider.ID.Hex()), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/groups/"+group.ID.Hex()+"/attendance", strings.NewReader(tt.body))
			req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
			rec := httptest.NewRecorder()
			h.HandleUpsert(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestHandleList(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Empty Log", 5)

	req := testutil.WithChiURLParam(
		httptest.NewRequest("GET", "/groups/"+group.ID.Hex()+"/attendance", nil), "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty log should encode as [], got %s", body)
	}
}
