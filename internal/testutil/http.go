package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/enrollhub/internal/app/system/auth"
)

// WithOperator adds a signed-in operator to the request context.
// This bypasses the session middleware and injects the operator directly.
func WithOperator(r *http.Request, name string) *http.Request {
	return auth.WithTestOperator(r, auth.Operator{Name: name})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewOperatorRequest creates an HTTP request with an operator in context.
func NewOperatorRequest(method, target, operator string) *http.Request {
	return WithOperator(httptest.NewRequest(method, target, nil), operator)
}
