// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans free-text input before it is stored. Notes on
// memberships and attendance entries come straight from request bodies and
// are later rendered in admin tooling, so markup is stripped at the boundary.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Note reduces a free-text note to plain text: all HTML removed, surrounding
// whitespace trimmed.
func Note(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
