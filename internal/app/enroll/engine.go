// internal/app/enroll/engine.go
package enroll

// Terminology:
//   - membership row: an entry in Student.Groups; the source of truth for a
//     student's relationship to a group.
//   - mirror: Group.Students, the denormalized reverse-reference list. Always
//     reconstructible from membership rows.
//
// The engine writes the membership rows first (one atomic document update per
// student) and reconciles mirrors afterwards, best effort. A failed mirror
// write is logged and repaired by the next mutation touching the same
// student, because reconciliation syncs the persisted mirror state to the
// rows just written instead of replaying a delta.

import (
	"context"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/policy/capacitypolicy"
	groupstore "github.com/dalemusser/enrollhub/internal/app/store/groups"
	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Engine struct {
	students *studentstore.Store
	groups   *groupstore.Store
	guard    *capacitypolicy.Guard
	log      *zap.Logger
}

func NewEngine(db *mongo.Database, logger *zap.Logger) *Engine {
	return &Engine{
		students: studentstore.New(db),
		groups:   groupstore.New(db),
		guard:    capacitypolicy.New(db),
		log:      logger,
	}
}

// Students exposes the underlying student store for read paths.
func (e *Engine) Students() *studentstore.Store { return e.students }

// Groups exposes the underlying group store for read paths.
func (e *Engine) Groups() *groupstore.Store { return e.groups }

// SetMemberships replaces the student's full membership list with desired.
// Validation and capacity checks all happen before the write; any refusal
// leaves the student untouched. Mirror reconciliation runs after the write
// and never fails the operation.
func (e *Engine) SetMemberships(ctx context.Context, studentID primitive.ObjectID, desired []models.Membership) (models.Student, error) {
	if desired == nil {
		desired = []models.Membership{}
	}

	seen := make(map[primitive.ObjectID]struct{}, len(desired))
	groupIDs := make([]primitive.ObjectID, 0, len(desired))
	for _, m := range desired {
		if !models.ValidMembershipStatus(m.Status) {
			return models.Student{}, &ValidationError{Msg: "unknown membership status: " + string(m.Status)}
		}
		if _, dup := seen[m.GroupID]; dup {
			return models.Student{}, &ValidationError{Msg: "duplicate group id in membership list: " + m.GroupID.Hex()}
		}
		seen[m.GroupID] = struct{}{}
		groupIDs = append(groupIDs, m.GroupID)
	}

	student, err := e.students.GetByID(ctx, studentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Student{}, &NotFoundError{Kind: "student", IDs: []primitive.ObjectID{studentID}}
		}
		return models.Student{}, err
	}

	groupsByID, err := e.loadGroups(ctx, groupIDs)
	if err != nil {
		return models.Student{}, err
	}

	previous := membershipsByGroup(student.Groups)

	// Seat checks cover only *new* occupations: a student who already holds
	// an active row in the group keeps the seat without re-checking.
	var activating []primitive.ObjectID
	for _, m := range desired {
		if m.Status != models.MembershipActive {
			continue
		}
		if prev, ok := previous[m.GroupID]; ok && prev.Status == models.MembershipActive {
			continue
		}
		activating = append(activating, m.GroupID)
	}
	if len(activating) > 0 {
		counts, err := e.guard.CountActiveSeats(ctx, activating, &studentID)
		if err != nil {
			return models.Student{}, err
		}
		for _, gid := range activating {
			grp := groupsByID[gid]
			if ok, reason := e.guard.CanActivate(grp, counts[gid]); !ok {
				return models.Student{}, &CapacityError{GroupID: gid, GroupName: grp.Name, Reason: reason}
			}
		}
	}

	now := time.Now().UTC()
	for i := range desired {
		if desired[i].JoinedAt.IsZero() {
			if prev, ok := previous[desired[i].GroupID]; ok {
				desired[i].JoinedAt = prev.JoinedAt
			} else {
				desired[i].JoinedAt = now
			}
		}
	}

	if err := e.students.ReplaceMemberships(ctx, studentID, desired); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Student{}, &NotFoundError{Kind: "student", IDs: []primitive.ObjectID{studentID}}
		}
		return models.Student{}, err
	}

	e.reconcileMirrors(ctx, studentID, desired)

	student.Groups = desired
	student.GroupAttached = models.AnyActive(desired)
	student.UpdatedAt = now
	return student, nil
}

// AttachOrUpdate upserts a single membership row. Returns created=true when
// the student had no row for this group yet. joinedAt is optional: on create
// it defaults to now, on update the existing value is retained when absent.
func (e *Engine) AttachOrUpdate(ctx context.Context, groupID, studentID primitive.ObjectID, status models.MembershipStatus, joinedAt *time.Time, note string) (models.Student, bool, error) {
	if !models.ValidMembershipStatus(status) {
		return models.Student{}, false, &ValidationError{Msg: "unknown membership status: " + string(status)}
	}

	student, err := e.students.GetByID(ctx, studentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Student{}, false, &NotFoundError{Kind: "student", IDs: []primitive.ObjectID{studentID}}
		}
		return models.Student{}, false, err
	}

	desired := make([]models.Membership, len(student.Groups))
	copy(desired, student.Groups)

	created := true
	row := models.Membership{GroupID: groupID, Status: status, Note: note}
	if joinedAt != nil {
		row.JoinedAt = *joinedAt
	}
	for i, m := range desired {
		if m.GroupID == groupID {
			created = false
			if joinedAt == nil {
				row.JoinedAt = m.JoinedAt
			}
			desired[i] = row
			break
		}
	}
	if created {
		desired = append(desired, row)
	}

	updated, err := e.SetMemberships(ctx, studentID, desired)
	if err != nil {
		return models.Student{}, false, err
	}
	return updated, created, nil
}

// Detach removes the membership row for the group. Missing row is NotFound;
// detaching never needs a capacity check.
func (e *Engine) Detach(ctx context.Context, groupID, studentID primitive.ObjectID) (models.Student, error) {
	student, err := e.students.GetByID(ctx, studentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Student{}, &NotFoundError{Kind: "student", IDs: []primitive.ObjectID{studentID}}
		}
		return models.Student{}, err
	}

	desired := make([]models.Membership, 0, len(student.Groups))
	found := false
	for _, m := range student.Groups {
		if m.GroupID == groupID {
			found = true
			continue
		}
		desired = append(desired, m)
	}
	if !found {
		return models.Student{}, &NotFoundError{Kind: "membership", IDs: []primitive.ObjectID{groupID}}
	}

	return e.SetMemberships(ctx, studentID, desired)
}

// DeleteGroup removes the group after cascading the membership rows out of
// every referencing student and re-deriving their group_attached flags. The
// cascade completes before the group delete so the caller never observes a
// deleted group with live membership rows pointing at it.
func (e *Engine) DeleteGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	if _, err := e.groups.GetByID(ctx, groupID); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, &NotFoundError{Kind: "group", IDs: []primitive.ObjectID{groupID}}
		}
		return 0, err
	}

	affected, err := e.students.ListIDsByGroupRef(ctx, groupID)
	if err != nil {
		return 0, err
	}
	pulled, err := e.students.PullMembershipFromAll(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if err := e.students.RecomputeGroupAttached(ctx, affected); err != nil {
		return 0, err
	}

	if _, err := e.groups.Delete(ctx, groupID); err != nil {
		return pulled, err
	}
	return pulled, nil
}

// DeleteStudent removes the student and pulls their id from every group
// mirror.
func (e *Engine) DeleteStudent(ctx context.Context, studentID primitive.ObjectID) error {
	deleted, err := e.students.Delete(ctx, studentID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &NotFoundError{Kind: "student", IDs: []primitive.ObjectID{studentID}}
	}
	if _, err := e.groups.PullStudentFromAllMirrors(ctx, studentID); err != nil {
		// The student document is gone; a stale mirror entry heals on the
		// next mutation touching that group.
		e.log.Error("mirror cleanup after student delete failed",
			zap.String("student_id", studentID.Hex()), zap.Error(err))
	}
	return nil
}

// loadGroups fetches all referenced groups and fails with the full list of
// missing ids rather than the first one.
func (e *Engine) loadGroups(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Group, error) {
	groups, err := e.groups.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	var missing []primitive.ObjectID
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{Kind: "group", IDs: missing}
	}
	return byID, nil
}

// reconcileMirrors syncs the group mirrors to the membership rows just
// written. Best effort: each failure is logged and left for the next
// mutation. Both directions work off current state rather than the delta
// against the previously-read rows: every kept group is re-asserted
// (AddToMirror is a set add) and the student is pulled from every persisted
// mirror not in the kept set, so a mirror write that failed earlier heals
// here without any dedicated repair job.
func (e *Engine) reconcileMirrors(ctx context.Context, studentID primitive.ObjectID, desired []models.Membership) {
	kept := make([]primitive.ObjectID, 0, len(desired))
	for _, m := range desired {
		kept = append(kept, m.GroupID)
		if err := e.groups.AddToMirror(ctx, m.GroupID, studentID); err != nil {
			e.log.Error("mirror add failed",
				zap.String("group_id", m.GroupID.Hex()),
				zap.String("student_id", studentID.Hex()),
				zap.Error(err))
		}
	}
	if _, err := e.groups.PullStudentFromOtherMirrors(ctx, studentID, kept); err != nil {
		e.log.Error("mirror remove failed",
			zap.String("student_id", studentID.Hex()),
			zap.Error(err))
	}
}

func membershipsByGroup(rows []models.Membership) map[primitive.ObjectID]models.Membership {
	m := make(map[primitive.ObjectID]models.Membership, len(rows))
	for _, row := range rows {
		m[row.GroupID] = row
	}
	return m
}
