// internal/app/features/students/memberships.go
package students

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// membershipPayload accepts either a bare group id string or a structured
// object. The loose shape is resolved here, once, into a strict
// models.Membership before anything reaches the engine; a bare id means
// "active membership in that group".
type membershipPayload struct {
	GroupID  string     `json:"group_id"`
	Status   string     `json:"status"`
	JoinedAt *time.Time `json:"joined_at"`
	Note     string     `json:"note"`
}

func (p *membershipPayload) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		p.GroupID = id
		p.Status = string(models.MembershipActive)
		return nil
	}
	type plain membershipPayload
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = membershipPayload(v)
	if p.Status == "" {
		p.Status = string(models.MembershipActive)
	}
	return nil
}

func (p membershipPayload) resolve() (models.Membership, error) {
	gid, err := primitive.ObjectIDFromHex(p.GroupID)
	if err != nil {
		return models.Membership{}, err
	}
	m := models.Membership{
		GroupID: gid,
		Status:  models.MembershipStatus(p.Status),
		Note:    htmlsanitize.Note(p.Note),
	}
	if p.JoinedAt != nil {
		m.JoinedAt = p.JoinedAt.UTC()
	}
	return m, nil
}

// HandleSetMemberships handles PUT /students/{id}/memberships: a full
// replacement of the membership list, capacity-checked by the engine.
func (h *Handler) HandleSetMemberships(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Memberships []membershipPayload `json:"memberships"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	desired := make([]models.Membership, 0, len(req.Memberships))
	for _, p := range req.Memberships {
		m, err := p.resolve()
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad group id: " + p.GroupID})
			return
		}
		desired = append(desired, m)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.Sweep.MaybeRun(ctx, false)

	st, err := h.Engine.SetMemberships(ctx, id, desired)
	if err != nil {
		h.Log.Info("set memberships rejected",
			zap.String("student_id", id.Hex()), zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, st)
}
