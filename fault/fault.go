// Package fault classifies errors raised inside event and interaction handlers so the
// boundary can decide what the actor sees and what gets logged.
//
// Domain packages declare their sentinel errors with New; anything that was not
// declared that way (network failures, database errors, platform API errors) is
// classified as Upstream.
package fault

import (
	"errors"
)

// Class groups errors by how they are surfaced to the actor.
type Class int

const (
	// Upstream covers platform and store failures. They are logged; the actor sees a
	// generic failure message.
	Upstream Class = iota
	// Authorization: the actor is not the room owner or lacks an elevated privilege.
	Authorization
	// Validation: malformed input. The request is not consumed and may be resubmitted.
	Validation
	// NotFound: no record, missing channel, target not in the guild.
	NotFound
	// Conflict: the requester already owns a room or is below the invite threshold.
	Conflict
)

// String returns a human-readable name for the class.
func (c Class) String() string {
	switch c {
	case Upstream:
		return "upstream"
	case Authorization:
		return "authorization"
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "upstream"
	}
}

// Error is a classified error. Key names the localized message shown to the actor.
type Error struct {
	Class Class
	Key   string
	msg   string
}

// New declares a classified sentinel error.
func New(class Class, key, msg string) *Error {
	return &Error{Class: class, Key: key, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Classify returns the class of err. Unclassified errors are Upstream.
func Classify(err error) Class {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return Upstream
}

// MessageKey returns the localized message key carried by err and whether one was found.
func MessageKey(err error) (string, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Key != "" {
		return fe.Key, true
	}
	return "", false
}

// IsUpstream reports whether err should be logged as an operational failure.
func IsUpstream(err error) bool {
	return err != nil && Classify(err) == Upstream
}
