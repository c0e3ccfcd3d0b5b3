// Package htmlsanitize strips markup from user-supplied free text.
// File comments are stored as plain text; bluemonday removes any HTML a
// client smuggles in.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// Comments are plain text; no elements survive.
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Comment cleans a file comment: removes all HTML, then trims whitespace.
func Comment(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(getPolicy().Sanitize(s))
}
