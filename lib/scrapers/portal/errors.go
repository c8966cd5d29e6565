package portal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCourseDocument is returned when a course document is missing the
// offering/selection/block structure a course is built from.
var ErrMalformedCourseDocument = errors.New("malformed course document")

type RemoteErrorKind int

const (
	// RemoteErrorOther is any message the portal reports that is not recognized.
	RemoteErrorOther RemoteErrorKind = iota
	// RemoteErrorNotInTerm means the course exists but is not offered in the term,
	// this is informational rather than a failure.
	RemoteErrorNotInTerm
	// RemoteErrorNotFound means the course does not exist.
	RemoteErrorNotFound
)

func (k RemoteErrorKind) String() string {
	switch k {
	case RemoteErrorNotInTerm:
		return "not_in_term"
	case RemoteErrorNotFound:
		return "not_found"
	default:
		return "other"
	}
}

// ClassifyRemoteError maps a portal error message onto its kind.
func ClassifyRemoteError(message string) RemoteErrorKind {
	if strings.Contains(message, notFoundPhrase) {
		return RemoteErrorNotFound
	}
	if strings.Contains(message, notOfferedInTermPhrase) {
		return RemoteErrorNotInTerm
	}
	return RemoteErrorOther
}

// RemoteError is an error the portal reported inside an otherwise well formed
// course document.
type RemoteError struct {
	Message string
	Kind    RemoteErrorKind
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("portal: %s", e.Message)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCourseDocument, fmt.Sprintf(format, args...))
}
