package sweep_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/features/sweep"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/enrollhub/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleRunAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateStudentWithBalance(ctx, "Old Balance", 90, time.Now().UTC().Add(-45*24*time.Hour))

	s := sweeper.New(db, zap.NewNop(), 30*24*time.Hour, time.Minute)
	h := sweep.NewHandler(s, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleRun(rec, httptest.NewRequest("POST", "/sweep", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("run status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res struct {
		Outcome  string `json:"outcome"`
		Modified int64  `json:"modified"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if res.Outcome != string(sweeper.OutcomeRan) {
		t.Errorf("outcome: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}
	if res.Modified != 1 {
		t.Errorf("modified: got %d, want 1", res.Modified)
	}

	rec = httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest("GET", "/sweep", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var status struct {
		LastRunAt time.Time `json:"last_run_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if status.LastRunAt.IsZero() {
		t.Error("last_run_at should be set after a run")
	}
}
