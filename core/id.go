package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a unique identifier suitable for event tracking and
// correlation.
func NewID() string { return uuid.NewString() }

// NewShortID returns an 8-character hex token for workflow instance
// correlation. Uniqueness is probabilistic only; collision handling is the
// caller's concern (and in practice a non-issue at the volumes involved).
func NewShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
