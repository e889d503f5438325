// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus describes a student's relationship to one group.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipPaused    MembershipStatus = "paused"
	MembershipCompleted MembershipStatus = "completed"
	MembershipLeft      MembershipStatus = "left"
)

// ValidMembershipStatus reports whether s is one of the known statuses.
func ValidMembershipStatus(s MembershipStatus) bool {
	switch s {
	case MembershipActive, MembershipPaused, MembershipCompleted, MembershipLeft:
		return true
	}
	return false
}

// Membership is the authoritative statement of a student's relationship to a
// group. Exactly one entry per group_id within a student's Groups list; only
// "active" entries consume a seat.
type Membership struct {
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	Status   MembershipStatus   `bson:"status" json:"status"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
	Note     string             `bson:"note,omitempty" json:"note,omitempty"`
}

// Student represents one enrolled person.
//
// NOTE:
//   - Groups is the source of truth for membership. The group document keeps
//     a denormalized mirror (Group.Students) for fast reverse lookups; the
//     mirror is reconstructible from these rows and is repaired lazily.
//   - GroupAttached is derived from Groups on every membership write and is
//     never set independently.
type Student struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	Groups        []Membership `bson:"groups" json:"groups"`
	GroupAttached bool         `bson:"group_attached" json:"group_attached"`

	Balance        int64     `bson:"balance" json:"balance"`
	BalanceResetAt time.Time `bson:"balance_reset_at" json:"balance_reset_at"`
	CoinBalance    int64     `bson:"coin_balance" json:"coin_balance"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AnyActive reports whether any membership in the list is active.
func AnyActive(groups []Membership) bool {
	for _, m := range groups {
		if m.Status == MembershipActive {
			return true
		}
	}
	return false
}
