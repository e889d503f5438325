// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureStudents(ctx, db); err != nil {
		problems = append(problems, "students: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureStudents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("students")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Multikey index over the embedded membership rows; drives both
			// the live seat-count aggregate and the group-delete cascade.
			Keys: bson.D{{Key: "groups.group_id", Value: 1}, {Key: "groups.status", Value: 1}},
			Options: options.Index().SetName("membership_rows"),
		},
		{
			// The balance sweep's match filter.
			Keys:    bson.D{{Key: "balance_reset_at", Value: 1}},
			Options: options.Index().SetName("balance_reset_at"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("full_name_ci"),
		},
	})
	return err
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("groups")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("name_ci_unique").SetUnique(true),
		},
		{
			// Mirror membership lookups (students containing a given id).
			Keys:    bson.D{{Key: "students", Value: 1}},
			Options: options.Index().SetName("students_mirror"),
		},
	})
	return err
}
