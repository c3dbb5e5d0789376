// Package qerr defines the query-facing error kinds of §7, shared by
// query/filter, query/actions and query so that a QueryParse/BadRequest
// raised deep in expression compilation reaches the HTTP/CLI surface with
// its kind intact instead of being flattened into a generic error.
package qerr

import "fmt"

// Kind tags why a query request was rejected or failed (§7).
type Kind int

const (
	// QueryParse: malformed JSON, unknown type, missing required field,
	// out-of-range enum, position <= 0, proportion outside [0,1]. Surfaced to
	// the client verbatim.
	QueryParse Kind = iota
	// BadRequest: syntactically valid but refers to a non-existent column /
	// sequence name / tree column; invalid regex; out-of-bounds position.
	BadRequest
	// Timeout: deadline exceeded; partial state discarded.
	Timeout
	// Cancelled: the caller withdrew the request before completion.
	Cancelled
	// Internal: invariant violation. Logged and surfaced as a generic
	// failure; never shown verbatim to the client.
	Internal
)

func (k Kind) String() string {
	switch k {
	case QueryParse:
		return "QueryParse"
	case BadRequest:
		return "BadRequest"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the typed error every query-facing failure is wrapped in.
type Error struct {
	Kind    Kind
	Message string
	// Suggestion, when non-empty, names the closest valid column/sequence
	// name to what the client asked for (query/errs.go's matchr-based
	// "did you mean" lookup).
	Suggestion string
}

func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (did you mean %q?)", e.Kind, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Newf builds a *Error of the given kind.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
