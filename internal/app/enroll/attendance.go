// internal/app/enroll/attendance.go
package enroll

import (
	"context"
	"time"

	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AttendanceRecord is one student's mark in a roster submission.
type AttendanceRecord struct {
	StudentID primitive.ObjectID
	Status    models.AttendanceStatus
	Note      string
}

// UpsertAttendance merges one day's roster into the group's attendance log.
// Same-day entries for a student are replaced, new ones appended, so
// resubmitting a roster overwrites instead of duplicating. The merge runs
// server-side in a single document update, so a rejected batch changes
// nothing and a concurrent merge for another day is never overwritten.
func (e *Engine) UpsertAttendance(ctx context.Context, groupID primitive.ObjectID, date time.Time, records []AttendanceRecord, markedBy string) (models.Group, error) {
	if len(records) == 0 {
		return models.Group{}, &ValidationError{Msg: "no attendance records supplied"}
	}
	seen := make(map[primitive.ObjectID]struct{}, len(records))
	for _, rec := range records {
		if !models.ValidAttendanceStatus(rec.Status) {
			return models.Group{}, &ValidationError{Msg: "unknown attendance status: " + string(rec.Status)}
		}
		if _, dup := seen[rec.StudentID]; dup {
			return models.Group{}, &ValidationError{Msg: "duplicate student in attendance batch: " + rec.StudentID.Hex()}
		}
		seen[rec.StudentID] = struct{}{}
	}

	group, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Group{}, &NotFoundError{Kind: "group", IDs: []primitive.ObjectID{groupID}}
		}
		return models.Group{}, err
	}

	if err := e.requireActiveMembers(ctx, groupID, records); err != nil {
		return models.Group{}, err
	}

	day := models.DayKey(date)
	entries := make([]models.AttendanceEntry, len(records))
	for i, rec := range records {
		entries[i] = models.AttendanceEntry{
			StudentID: rec.StudentID,
			Date:      date.UTC(),
			Status:    rec.Status,
			Note:      rec.Note,
			MarkedBy:  markedBy,
		}
	}

	if err := e.groups.MergeAttendanceDay(ctx, groupID, day, entries); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Group{}, &NotFoundError{Kind: "group", IDs: []primitive.ObjectID{groupID}}
		}
		return models.Group{}, err
	}

	// Mirror the server-side merge for the response body.
	merged := make([]models.AttendanceEntry, 0, len(group.Attendance)+len(entries))
	batch := make(map[primitive.ObjectID]struct{}, len(entries))
	for _, entry := range entries {
		batch[entry.StudentID] = struct{}{}
	}
	for _, existing := range group.Attendance {
		if _, hit := batch[existing.StudentID]; hit && models.DayKey(existing.Date) == day {
			continue
		}
		merged = append(merged, existing)
	}
	merged = append(merged, entries...)

	group.Attendance = merged
	return group, nil
}

// requireActiveMembers rejects the batch unless every named student currently
// holds an active membership row for the group. Unknown students fail the
// same check.
func (e *Engine) requireActiveMembers(ctx context.Context, groupID primitive.ObjectID, records []AttendanceRecord) error {
	ids := make([]primitive.ObjectID, len(records))
	for i, rec := range records {
		ids[i] = rec.StudentID
	}
	students, err := e.students.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	active := make(map[primitive.ObjectID]bool, len(students))
	for _, st := range students {
		for _, m := range st.Groups {
			if m.GroupID == groupID && m.Status == models.MembershipActive {
				active[st.ID] = true
				break
			}
		}
	}

	var inactive []primitive.ObjectID
	for _, id := range ids {
		if !active[id] {
			inactive = append(inactive, id)
		}
	}
	if len(inactive) > 0 {
		return &ValidationError{Msg: "only active members may be marked: " + joinHex(inactive)}
	}
	return nil
}

func joinHex(ids []primitive.ObjectID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id.Hex()
	}
	return out
}
