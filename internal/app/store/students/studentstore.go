// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"time"

	"github.com/dalemusser/enrollhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// FindByIDs returns the students whose ids are in the given list. Missing ids
// are simply absent from the result; the caller decides whether that matters.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.FullNameCI = text.Fold(st.FullName)
	if st.Status == "" {
		st.Status = "active"
	}
	if st.Groups == nil {
		st.Groups = []models.Membership{}
	}
	st.GroupAttached = models.AnyActive(st.Groups)
	if st.BalanceResetAt.IsZero() {
		st.BalanceResetAt = now
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// UpdateInfo applies a partial update. Nil fields are left alone; phone can
// be cleared by passing a pointer to the empty string.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, fullName, phone *string) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if fullName != nil && *fullName != "" {
		set["full_name"] = *fullName
		set["full_name_ci"] = text.Fold(*fullName)
	}
	if phone != nil {
		set["phone"] = *phone
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// ReplaceMemberships overwrites the student's membership rows and the derived
// group_attached flag in one document update. This is the primary membership
// write; mirror reconciliation happens afterwards and is best effort.
func (s *Store) ReplaceMemberships(ctx context.Context, id primitive.ObjectID, groups []models.Membership) error {
	if groups == nil {
		groups = []models.Membership{}
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"groups":         groups,
		"group_attached": models.AnyActive(groups),
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddCoins increments the student's coin balance. Amounts are validated by the
// caller; the balance only ever grows through this path.
func (s *Store) AddCoins(ctx context.Context, id primitive.ObjectID, amount int64) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"coin_balance": amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a student by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountActiveMembershipsByGroup counts, for each requested group, the students
// holding an active membership row for that group. The count is computed live
// from the students collection; the group's mirror list is never consulted.
// exclude, when non-nil, removes one student from consideration (used when
// re-evaluating a student who already occupies a seat).
func (s *Store) CountActiveMembershipsByGroup(ctx context.Context, groupIDs []primitive.ObjectID, exclude *primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}

	match := bson.M{
		"groups": bson.M{"$elemMatch": bson.M{
			"group_id": bson.M{"$in": groupIDs},
			"status":   models.MembershipActive,
		}},
	}
	if exclude != nil {
		match["_id"] = bson.M{"$ne": *exclude}
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$unwind": "$groups"},
		{"$match": bson.M{
			"groups.group_id": bson.M{"$in": groupIDs},
			"groups.status":   models.MembershipActive,
		}},
		{"$group": bson.M{"_id": "$groups.group_id", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// ListIDsByGroupRef returns the ids of every student whose membership list
// references the group, regardless of membership status.
func (s *Store) ListIDsByGroupRef(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"groups.group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// PullMembershipFromAll removes the membership row for groupID from every
// student that has one. Returns the number of students modified. Callers
// follow up with RecomputeGroupAttached for the affected ids.
func (s *Store) PullMembershipFromAll(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"groups.group_id": groupID},
		bson.M{
			"$pull": bson.M{"groups": bson.M{"group_id": groupID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// RecomputeGroupAttached re-derives group_attached from the persisted
// membership rows for the given students, server-side. Used after bulk pulls
// where the new flag value cannot be known per student in advance.
func (s *Store) RecomputeGroupAttached(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		[]bson.M{{"$set": bson.M{
			"group_attached": bson.M{"$anyElementTrue": bson.M{
				"$map": bson.M{
					"input": bson.M{"$ifNull": []interface{}{"$groups", []interface{}{}}},
					"as":    "m",
					"in":    bson.M{"$eq": []interface{}{"$$m.status", string(models.MembershipActive)}},
				},
			}},
			"updated_at": "$$NOW",
		}}})
	return err
}

// ResetStaleBalances zeroes the balance of every student whose last reset is
// missing or older than the cutoff, stamping balance_reset_at with now.
// Returns (matched, modified).
func (s *Store) ResetStaleBalances(ctx context.Context, cutoff, now time.Time) (int64, int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"$or": []bson.M{
			{"balance_reset_at": bson.M{"$lt": cutoff}},
			{"balance_reset_at": bson.M{"$exists": false}},
			{"balance_reset_at": nil},
		}},
		bson.M{"$set": bson.M{
			"balance":          int64(0),
			"balance_reset_at": now,
		}})
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// List returns students ordered by folded name.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
