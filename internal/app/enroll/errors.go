// internal/app/enroll/errors.go
package enroll

import (
	"fmt"
	"strings"

	"github.com/dalemusser/enrollhub/internal/app/policy/capacitypolicy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The engine reports failures as typed outcomes so the transport layer can
// map them to status codes without string matching. Anything not covered by
// these types is an internal error.

// ValidationError is malformed or contradictory input. Client-correctable;
// nothing was written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError names the missing entities. Nothing was written.
type NotFoundError struct {
	Kind string // "student" | "group" | "membership"
	IDs  []primitive.ObjectID
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return e.Kind + " not found"
	}
	hexes := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		hexes[i] = id.Hex()
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, strings.Join(hexes, ", "))
}

// CapacityError is a refused seat activation. It always names the group and
// which rule refused; it is never downgraded to a partial success.
type CapacityError struct {
	GroupID   primitive.ObjectID
	GroupName string
	Reason    capacitypolicy.Denial
}

func (e *CapacityError) Error() string {
	switch e.Reason {
	case capacitypolicy.DeniedGroupClosed:
		return fmt.Sprintf("group %q (%s) is closed to new members", e.GroupName, e.GroupID.Hex())
	case capacitypolicy.DeniedFull:
		return fmt.Sprintf("group %q (%s) has no open seats", e.GroupName, e.GroupID.Hex())
	}
	return fmt.Sprintf("group %q (%s) refused activation", e.GroupName, e.GroupID.Hex())
}

// ConflictError is a uniqueness violation (duplicate membership row, duplicate
// roster entry).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }
