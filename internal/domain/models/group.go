// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	GroupPlanned   GroupStatus = "planned"
	GroupActive    GroupStatus = "active"
	GroupPaused    GroupStatus = "paused"
	GroupCompleted GroupStatus = "completed"
	GroupArchived  GroupStatus = "archived"
)

// ValidGroupStatus reports whether s is one of the known statuses.
func ValidGroupStatus(s GroupStatus) bool {
	switch s {
	case GroupPlanned, GroupActive, GroupPaused, GroupCompleted, GroupArchived:
		return true
	}
	return false
}

// Closed reports whether the group may no longer receive new or re-activated
// memberships. This overrides seat availability.
func (s GroupStatus) Closed() bool {
	return s == GroupCompleted || s == GroupArchived
}

// AttendanceStatus marks one student on one day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// ValidAttendanceStatus reports whether s is one of the known statuses.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceEntry is one student's mark for one calendar day. At most one
// entry exists per (student_id, UTC day) pair; the day is compared by date
// truncation, not timestamp equality.
type AttendanceEntry struct {
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Date      time.Time          `bson:"date" json:"date"`
	Status    AttendanceStatus   `bson:"status" json:"status"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	MarkedBy  string             `bson:"marked_by,omitempty" json:"marked_by,omitempty"`
}

// DayKey returns the UTC calendar-day key for t, used to match attendance
// entries for the same day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Group represents a cohort of students.
//
// NOTE:
//   - Students is a membership mirror, not a capacity signal: it holds every
//     student with *any* membership row pointing at this group, regardless of
//     status. Occupied seats are always counted live from the students
//     collection.
//   - Schedule is a static attribute; nothing here computes timetables.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Schedule    string             `bson:"schedule,omitempty" json:"schedule,omitempty"`

	Status      GroupStatus `bson:"status" json:"status"`
	MaxStudents int         `bson:"max_students" json:"max_students"`

	Students   []primitive.ObjectID `bson:"students" json:"students"`
	Attendance []AttendanceEntry    `bson:"attendance,omitempty" json:"attendance,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
