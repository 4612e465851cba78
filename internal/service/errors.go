package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindUnauthorized
	KindConflict
	KindPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidInput:
		return "InvalidInput"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindPrecondition:
		return "PreconditionFailed"
	default:
		return "Internal"
	}
}

// Error is a failure the caller can correct and resubmit.
type Error struct {
	Kind Kind
	// Type is the stable name reported to clients as errorType.
	Type    string
	Message string
	// Hidden marks authorization failures that must look like a missing
	// resource to the caller.
	Hidden bool
	cause  error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func newError(kind Kind, typ string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Type: typ, Message: fmt.Sprintf(format, args...), cause: cause}
}

func errNotFound(entity string, id int64, cause error) *Error {
	return newError(KindNotFound, "NotFound", cause, "%s with id %d not found", entity, id)
}

func errValidation(format string, args ...interface{}) *Error {
	return newError(KindInvalidInput, "ValidationError", nil, format, args...)
}

func errInvalidTimeRange() *Error {
	return newError(KindInvalidInput, "InvalidTimeRange", nil, "booking end must be after its start")
}

func errItemUnavailable(itemID int64) *Error {
	return newError(KindInvalidInput, "ItemUnavailable", nil, "item %d is not available for booking", itemID)
}

func errUnsupportedState(cause error) *Error {
	return newError(KindInvalidInput, "UnsupportedState", cause, "%s", cause.Error())
}

func errOwnerCannotBook(itemID int64) *Error {
	e := newError(KindUnauthorized, "OwnerCannotBookOwnItem", nil, "item with id %d not found", itemID)
	e.Hidden = true
	return e
}

func errBookingNotOwner(bookingID int64) *Error {
	e := newError(KindUnauthorized, "NotOwner", nil, "booking with id %d not found", bookingID)
	e.Hidden = true
	return e
}

func errBookingNotAuthorized(bookingID int64) *Error {
	e := newError(KindUnauthorized, "NotAuthorized", nil, "booking with id %d not found", bookingID)
	e.Hidden = true
	return e
}

func errItemNotOwner(userID, itemID int64) *Error {
	return newError(KindUnauthorized, "NotOwner", nil, "user %d is not the owner of item %d", userID, itemID)
}

func errAlreadyApproved(bookingID int64) *Error {
	return newError(KindConflict, "AlreadyApproved", nil, "booking %d is already approved", bookingID)
}

func errAlreadyDecided(bookingID int64) *Error {
	return newError(KindConflict, "AlreadyDecided", nil, "booking %d has already been decided", bookingID)
}

func errDuplicateEmail(email string, cause error) *Error {
	return newError(KindConflict, "DuplicateEmail", cause, "user with email %s already exists", email)
}

func errNotEligible(userID, itemID int64) *Error {
	return newError(KindPrecondition, "NotEligible", nil,
		"user %d has no finished approved booking of item %d", userID, itemID)
}
