package domain

import "errors"

// Protocol error taxonomy. Invariant violations (ConflictingQuestion,
// StageViolation, AlreadyFinalized) indicate a bug in the driving agent's
// call sequence; they are surfaced to the operator as recoverable error
// events and never terminate the channel.
var (
	// ErrConflictingQuestion is returned when a question is asked while
	// another question is still awaiting an answer.
	ErrConflictingQuestion = errors.New("a question is already pending")

	// ErrNoPendingQuestion is returned when an answer arrives but no
	// question is outstanding. A second answer for an already-answered
	// question fails with this error rather than being silently applied.
	ErrNoPendingQuestion = errors.New("no question is pending")

	// ErrInvalidAnswer is returned when an answer does not match the
	// pending question's constraints (options, multiplicity, length).
	ErrInvalidAnswer = errors.New("answer does not satisfy question constraints")

	// ErrStageViolation is returned when a tool call arrives out of order
	// with respect to the fixed workflow stage sequence.
	ErrStageViolation = errors.New("tool call not permitted in current stage")

	// ErrUnknownSectionKey is returned for a section submission whose key
	// is not one of the four fixed extraction sections.
	ErrUnknownSectionKey = errors.New("unknown extraction section key")

	// ErrAlreadyFinalized is returned when finalize is called on a job
	// that has already been finalized. Finalize is exactly-once: the
	// second call always errors and never returns the prior result.
	ErrAlreadyFinalized = errors.New("extraction job already finalized")

	// ErrIncompleteSections is returned when finalize is called before
	// all four required sections have been filled.
	ErrIncompleteSections = errors.New("extraction sections incomplete")

	// ErrCapabilityDenied is returned when the deployment gate forbids an
	// output mode or a privileged tool. The caller fails closed; there is
	// no silent downgrade.
	ErrCapabilityDenied = errors.New("capability not allowed in this deployment")

	// ErrRateLimited is returned when session creation exceeds the
	// per-client rate limit. Distinct from generic failures so clients
	// can present a "try again later" message.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSessionNotFound is returned when a session id does not resolve
	// to a live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrChannelClosed is returned when the client connection goes away
	// mid-operation. Not an error condition for a suspended question;
	// the session is simply torn down.
	ErrChannelClosed = errors.New("channel closed")
)
