// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/enrollhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
	ErrBadCapacity        = errors.New("max_students must be a positive integer")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// FindByIDs returns the groups whose ids are in the given list. Missing ids
// are absent from the result; callers that need all of them compare lengths.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	if g.MaxStudents <= 0 {
		return models.Group{}, ErrBadCapacity
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	if g.Status == "" {
		g.Status = models.GroupPlanned
	}
	if g.Students == nil {
		g.Students = []primitive.ObjectID{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, g)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo applies a partial update. Nil fields are left alone; description
// and schedule can be cleared by passing a pointer to the empty string.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc, schedule *string, stat *models.GroupStatus, maxStudents *int) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		set["name"] = *name
		set["name_ci"] = text.Fold(*name)
	}
	if desc != nil {
		set["description"] = *desc
	}
	if schedule != nil {
		set["schedule"] = *schedule
	}
	if stat != nil && *stat != "" {
		set["status"] = *stat
	}
	if maxStudents != nil && *maxStudents > 0 {
		set["max_students"] = *maxStudents
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateGroupName
		}
		return err
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
// The membership cascade is the engine's job and runs before this.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddToMirror adds the student id to the group's mirror list if absent.
func (s *Store) AddToMirror(ctx context.Context, groupID, studentID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, groupID, bson.M{
		"$addToSet": bson.M{"students": studentID},
	})
	return err
}

// PullStudentFromOtherMirrors removes the student id from every group mirror
// except the kept ones. Filtering on the persisted mirror state means a
// removal that failed on an earlier mutation is retried here, so stale mirror
// entries heal on the next mutation touching the student. Returns the number
// of groups modified.
func (s *Store) PullStudentFromOtherMirrors(ctx context.Context, studentID primitive.ObjectID, kept []primitive.ObjectID) (int64, error) {
	if kept == nil {
		kept = []primitive.ObjectID{}
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"students": studentID, "_id": bson.M{"$nin": kept}},
		bson.M{"$pull": bson.M{"students": studentID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PullStudentFromAllMirrors removes the student id from every group mirror
// that contains it. Returns the number of groups modified.
func (s *Store) PullStudentFromAllMirrors(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"students": studentID},
		bson.M{"$pull": bson.M{"students": studentID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MergeAttendanceDay merges one day's entries into the group's attendance
// log in a single pipeline update: existing entries for the same UTC day and
// the same students are dropped server-side, then the new entries are
// appended. The whole batch lands atomically and concurrent merges for other
// days are not lost to a read-modify-write race.
func (s *Store) MergeAttendanceDay(ctx context.Context, groupID primitive.ObjectID, day string, entries []models.AttendanceEntry) error {
	ids := make([]primitive.ObjectID, len(entries))
	for i, e := range entries {
		ids[i] = e.StudentID
	}
	kept := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$attendance", bson.A{}}},
		"as":    "entry",
		"cond": bson.M{"$not": bson.A{bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{
				bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$$entry.date", "timezone": "UTC"}},
				day,
			}},
			bson.M{"$in": bson.A{"$$entry.student_id", ids}},
		}}}},
	}}
	res, err := s.c.UpdateByID(ctx, groupID, []bson.M{{
		"$set": bson.M{
			"attendance": bson.M{"$concatArrays": bson.A{kept, entries}},
			"updated_at": time.Now().UTC(),
		},
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns groups ordered by folded name.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
