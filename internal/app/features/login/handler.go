// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/enrollhub/internal/app/features/shared/respond"
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler signs operators in against the single configured credential.
// There is no user table and no role matrix; permission evaluation is out of
// this service's hands.
type Handler struct {
	LoginID      string
	PasswordHash []byte
	Sessions     *auth.SessionManager
	Log          *zap.Logger
}

// NewHandler constructs a login Handler. password is the plaintext from
// configuration; it is hashed once here so the comparison path is uniform.
func NewHandler(loginID, password string, sessions *auth.SessionManager, logger *zap.Logger) (*Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Handler{
		LoginID:      loginID,
		PasswordHash: hash,
		Sessions:     sessions,
		Log:          logger,
	}, nil
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if !strings.EqualFold(strings.TrimSpace(req.LoginID), h.LoginID) ||
		bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(req.Password)) != nil {
		h.Log.Info("login rejected", zap.String("login_id", req.LoginID))
		respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	if err := h.Sessions.SignIn(w, r, auth.Operator{Name: h.LoginID}); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"operator": h.LoginID})
}

// HandleLogout handles POST /logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
