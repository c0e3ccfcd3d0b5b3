package drive

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable classification of an engine error. The
// transport layer maps kinds to status codes; the detail is for humans.
type Kind string

const (
	KindNotFound      Kind = "not_found"      // no matching record/token, or a structural reference is gone
	KindForbidden     Kind = "forbidden"      // ownership mismatch without administrative capability
	KindNameConflict  Kind = "name_conflict"  // sibling uniqueness violation
	KindCyclicMove    Kind = "cyclic_move"    // move target lies inside the moved folder's subtree
	KindSelfMove      Kind = "self_move"      // move target is the folder itself
	KindQuotaExceeded Kind = "quota_exceeded" // upload admission denied
	KindNegativeQuota Kind = "negative_quota" // administrative quota update below zero
	KindInvalidInput  Kind = "invalid_input"  // malformed name or argument
	KindStorageFault  Kind = "storage_fault"  // blob read/write/delete failure distinct from not-found
)

// Error is an engine error carrying a Kind. Structural-invariant violations
// and quota denials are surfaced to callers verbatim, never coerced.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error, or "" for untyped errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func errKind(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func wrapKind(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}
