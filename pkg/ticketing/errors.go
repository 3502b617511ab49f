package ticketing

import (
	"errors"
)

// Kind classifies a command failure.
type Kind int

const (
	// KindUnexpected is any failure the user cannot act on.
	KindUnexpected Kind = iota

	// KindNotConfigured means the guild has no configuration yet.
	KindNotConfigured

	// KindPermissionDenied means the caller lacks owner or admin standing.
	KindPermissionDenied

	// KindNotFound means a referenced ticket or channel does not exist.
	KindNotFound

	// KindInvalidInput means the request itself was rejected.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unexpected"
	}
}

// Error is a classified failure. Its message is safe to show to users.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the classification of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

var (
	ErrNotConfigured    = newError(KindNotConfigured, "No configuration exists for this server.")
	ErrPermissionDenied = newError(KindPermissionDenied, "You don't have permissions to do that.")

	ErrTicketNotFound  = newError(KindNotFound, "Ticket not found.")
	ErrChannelNotFound = newError(KindNotFound, "Channel not found.")
	ErrNoTickets       = newError(KindNotFound, "You don't have any tickets.")

	ErrInvalidCategory = newError(KindInvalidInput, "That category is not a ticket category for this server.")
	ErrInvalidPriority = newError(KindInvalidInput, "Priority must be one of low, medium or high.")
	ErrInvalidPage     = newError(KindInvalidInput, "That page does not exist.")
	ErrInvalidLimit    = newError(KindInvalidInput, "The ticket limit cannot be negative.")
	ErrMissingOption   = newError(KindInvalidInput, "Please provide a valid user or category.")
	ErrTicketClosed    = newError(KindInvalidInput, "This ticket is already closed.")
	ErrTicketClaimed   = newError(KindInvalidInput, "This ticket has already been claimed.")
	ErrTicketLimit     = newError(KindInvalidInput, "You have reached the maximum number of open tickets. Close one before opening another.")
)

// KindOf returns the classification of err. Errors that are not classified are unexpected.
func KindOf(err error) Kind {
	if e := classified(err); e != nil {
		return e.kind
	}
	return KindUnexpected
}

func classified(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
