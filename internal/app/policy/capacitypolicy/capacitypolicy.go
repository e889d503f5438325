// internal/app/policy/capacitypolicy/capacitypolicy.go
package capacitypolicy

import (
	"context"

	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Guard answers "may a new active membership occupy a seat in this group?".
// It reads, decides, and mutates nothing. Occupancy is always the live count
// of active membership rows in the students collection; the group's mirror
// list is never a capacity signal.
type Guard struct {
	students *studentstore.Store
}

func New(db *mongo.Database) *Guard {
	return &Guard{students: studentstore.New(db)}
}

// Denial explains why a group refused an activation.
type Denial string

const (
	DeniedGroupClosed Denial = "group_closed" // completed/archived, regardless of free seats
	DeniedFull        Denial = "group_full"   // active seats >= max_students
)

// CountActiveSeats returns the live occupied-seat count for each requested
// group. exclude, when non-nil, leaves one student out of the count; use it
// when re-evaluating a student who may already hold one of the seats.
// Groups with no active members are present in the map with a zero count.
func (g *Guard) CountActiveSeats(ctx context.Context, groupIDs []primitive.ObjectID, exclude *primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	counts, err := g.students.CountActiveMembershipsByGroup(ctx, groupIDs, exclude)
	if err != nil {
		return nil, err
	}
	for _, id := range groupIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts, nil
}

// CanActivate decides whether one more active membership fits in the group.
// A closed group refuses regardless of seat math. The group document must be
// loaded by the caller; the guard never fabricates an answer for an unknown
// group.
func (g *Guard) CanActivate(group models.Group, currentActive int64) (bool, Denial) {
	if group.Status.Closed() {
		return false, DeniedGroupClosed
	}
	if currentActive >= int64(group.MaxStudents) {
		return false, DeniedFull
	}
	return true, ""
}
