// internal/app/features/shared/respond/respond.go

// Package respond centralizes JSON responses and the mapping from the
// engine's typed outcomes to HTTP status codes. Handlers never inspect error
// strings.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	"go.mongodb.org/mongo-driver/mongo"
)

type errBody struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind,omitempty"`
	Group  string   `json:"group,omitempty"`
	Reason string   `json:"reason,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Err maps a failure to a status code and JSON body:
//
//	ValidationError -> 422
//	NotFoundError   -> 404
//	CapacityError   -> 409
//	ConflictError   -> 409
//	anything else   -> 500 (details withheld)
func Err(w http.ResponseWriter, err error) {
	var ve *enroll.ValidationError
	if errors.As(err, &ve) {
		JSON(w, http.StatusUnprocessableEntity, errBody{Error: ve.Error(), Kind: "validation"})
		return
	}

	var nfe *enroll.NotFoundError
	if errors.As(err, &nfe) {
		ids := make([]string, len(nfe.IDs))
		for i, id := range nfe.IDs {
			ids[i] = id.Hex()
		}
		JSON(w, http.StatusNotFound, errBody{Error: nfe.Error(), Kind: nfe.Kind, IDs: ids})
		return
	}

	var ce *enroll.CapacityError
	if errors.As(err, &ce) {
		JSON(w, http.StatusConflict, errBody{
			Error:  ce.Error(),
			Kind:   "capacity",
			Group:  ce.GroupID.Hex(),
			Reason: string(ce.Reason),
		})
		return
	}

	var cfe *enroll.ConflictError
	if errors.As(err, &cfe) {
		JSON(w, http.StatusConflict, errBody{Error: cfe.Error(), Kind: "conflict"})
		return
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		JSON(w, http.StatusNotFound, errBody{Error: "not found", Kind: "not_found"})
		return
	}

	JSON(w, http.StatusInternalServerError, errBody{Error: "internal error", Kind: "internal"})
}
