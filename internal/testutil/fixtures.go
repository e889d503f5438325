package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStudent creates a test student with no memberships.
func (f *Fixtures) CreateStudent(ctx context.Context, name string) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Student{
		ID:             primitive.NewObjectID(),
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Status:         "active",
		Groups:         []models.Membership{},
		BalanceResetAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateStudentWithMemberships creates a test student that already holds the
// given membership rows. GroupAttached is derived from the rows. The group
// mirrors are NOT updated; tests that need consistent mirrors should attach
// through the engine instead.
func (f *Fixtures) CreateStudentWithMemberships(ctx context.Context, name string, groups []models.Membership) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Student{
		ID:             primitive.NewObjectID(),
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Status:         "active",
		Groups:         groups,
		GroupAttached:  models.AnyActive(groups),
		BalanceResetAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateStudentWithBalance creates a test student carrying the given balance,
// last reset at resetAt.
func (f *Fixtures) CreateStudentWithBalance(ctx context.Context, name string, balance int64, resetAt time.Time) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Student{
		ID:             primitive.NewObjectID(),
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Status:         "active",
		Groups:         []models.Membership{},
		Balance:        balance,
		BalanceResetAt: resetAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateGroup creates an active test group with the given capacity.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, maxStudents int) models.Group {
	f.t.Helper()
	return f.CreateGroupWithStatus(ctx, name, maxStudents, models.GroupActive)
}

// CreateGroupWithStatus creates a test group in the given lifecycle state.
func (f *Fixtures) CreateGroupWithStatus(ctx context.Context, name string, maxStudents int, status models.GroupStatus) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Status:      status,
		MaxStudents: maxStudents,
		Students:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// Membership builds an active membership row for the given group, joined now.
func (f *Fixtures) Membership(groupID primitive.ObjectID) models.Membership {
	return models.Membership{
		GroupID:  groupID,
		Status:   models.MembershipActive,
		JoinedAt: time.Now().UTC(),
	}
}
