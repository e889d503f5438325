package groups_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"github.com/dalemusser/enrollhub/internal/app/features/groups"
	"github.com/dalemusser/enrollhub/internal/app/system/indexes"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/dalemusser/enrollhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	engine := enroll.NewEngine(db, logger)
	sweep := sweeper.New(db, logger, 0, 0)
	return groups.NewHandler(db, engine, sweep, logger), db
}

func TestHandleCreate(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/groups",
		strings.NewReader(`{"name":"Physics","max_students":8,"schedule":"Tue 16:00"}`))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var g models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("body is not a group: %v", err)
	}
	if g.Status != models.GroupPlanned {
		t.Errorf("Status: got %q, want default %q", g.Status, models.GroupPlanned)
	}
}

func TestHandleCreate_Rejections(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing name", `{"max_students":5}`, http.StatusUnprocessableEntity},
		{"zero capacity", `{"name":"G","max_students":0}`, http.StatusUnprocessableEntity},
		{"negative capacity", `{"name":"G","max_students":-2}`, http.StatusUnprocessableEntity},
		{"unknown status", `{"name":"G","max_students":5,"status":"open"}`, http.StatusUnprocessableEntity},
		{"malformed body", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/groups", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleCreate_DuplicateName(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	body := `{"name":"History","max_students":6}`
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, httptest.NewRequest("POST", "/groups", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create: got %d, want %d", rec.Code, http.StatusCreated)
	}

	rec = httptest.NewRecorder()
	h.HandleCreate(rec, httptest.NewRequest("POST", "/groups", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleAttach_FullGroup(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Packed", 1)
	fixtures.CreateStudentWithMemberships(ctx, "Seated", []models.Membership{fixtures.Membership(group.ID)})
	hopeful := fixtures.CreateStudent(ctx, "Hopeful")

	req := httptest.NewRequest("PUT", "/groups/"+group.ID.Hex()+"/members/"+hopeful.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	req = testutil.WithChiURLParam(req, "studentID", hopeful.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAttach(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

func TestHandleAttach_CreatedVsUpdated(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Roomy", 5)
	st := fixtures.CreateStudent(ctx, "Joiner")

	attach := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("PUT", "/groups/"+group.ID.Hex()+"/members/"+st.ID.Hex(), strings.NewReader(body))
		req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
		req = testutil.WithChiURLParam(req, "studentID", st.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleAttach(rec, req)
		return rec
	}

	// Empty body defaults to an active membership; first attach is a create.
	rec := attach("")
	if rec.Code != http.StatusCreated {
		t.Fatalf("first attach: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = attach(`{"status":"paused"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second attach: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got models.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not a student: %v", err)
	}
	if len(got.Groups) != 1 || got.Groups[0].Status != models.MembershipPaused {
		t.Errorf("Groups: got %+v, want one paused row", got.Groups)
	}
}

func TestHandleDetach_NotAMember(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Exclusive", 5)
	st := fixtures.CreateStudent(ctx, "Outsider")

	req := httptest.NewRequest("DELETE", "/groups/"+group.ID.Hex()+"/members/"+st.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	req = testutil.WithChiURLParam(req, "studentID", st.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDetach(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleDelete_ReportsDetachedCount(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Folding", 5)
	for _, name := range []string{"A", "B"} {
		fixtures.CreateStudentWithMemberships(ctx, name, []models.Membership{fixtures.Membership(group.ID)})
	}

	req := httptest.NewRequest("DELETE", "/groups/"+group.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Deleted  string `json:"deleted"`
		Detached int64  `json:"detached_students"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Detached != 2 {
		t.Errorf("detached_students: got %d, want 2", body.Detached)
	}
}

func TestHandleUpdate_OmittedFieldsUntouched(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Patchwork", 5)

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("PATCH", "/groups/"+group.ID.Hex(), strings.NewReader(body))
		req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleUpdate(rec, req)
		return rec
	}

	rec := patch(`{"description":"weekly drills","schedule":"Tue 16:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first patch: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// Renaming must not clear the fields the body omits.
	rec = patch(`{"name":"Patchwork II"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename patch: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not a group: %v", err)
	}
	if got.Name != "Patchwork II" {
		t.Errorf("Name: got %q, want %q", got.Name, "Patchwork II")
	}
	if got.Description != "weekly drills" || got.Schedule != "Tue 16:00" {
		t.Errorf("omitted fields changed: description=%q schedule=%q", got.Description, got.Schedule)
	}

	// An explicit empty string still clears.
	rec = patch(`{"description":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear patch: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not a group: %v", err)
	}
	if got.Description != "" {
		t.Errorf("Description should be cleared, got %q", got.Description)
	}
	if got.Schedule != "Tue 16:00" {
		t.Errorf("Schedule should survive, got %q", got.Schedule)
	}

	if rec := patch(`{"name":"   "}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}
