// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey   = "is_authenticated"
	operatorKey = "operator"
)

// Operator is the signed-in operator cached in the session and injected into
// r.Context(). Role and permission evaluation live outside this service; the
// session only answers "who is marking/mutating".
type Operator struct {
	Name string
}

type ctxKey string

const currentOperatorKey ctxKey = "currentOperator"

// SessionManager wraps the cookie store and middleware for operator sessions.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie session store. An empty key is refused
// outside dev; dev generates an ephemeral one so restarts log everyone out.
func NewSessionManager(key, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if name == "" {
		return nil, errors.New("session name must not be empty")
	}
	keyBytes := []byte(key)
	if len(keyBytes) == 0 {
		if secure {
			return nil, errors.New("session key must be set in production")
		}
		keyBytes = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not configured; using an ephemeral key")
	}

	store := sessions.NewCookieStore(keyBytes)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SignIn stores the operator in a fresh session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, op Operator) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[operatorKey] = op.Name
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// CurrentOperator returns the operator from context and a "found?" flag.
func CurrentOperator(r *http.Request) (Operator, bool) {
	op, ok := r.Context().Value(currentOperatorKey).(Operator)
	return op, ok
}

// LoadSession injects the operator into context when the cookie is valid.
func (m *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, m.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			name, _ := sess.Values[operatorKey].(string)
			ctx := context.WithValue(r.Context(), currentOperatorKey, Operator{Name: name})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn gates mutating routes. This is a JSON API, so a missing
// session is a plain 401 with no redirect dance.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentOperator(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestOperator injects an operator directly into the request context.
// Handler tests use this to bypass the session middleware.
func WithTestOperator(r *http.Request, op Operator) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentOperatorKey, op))
}
