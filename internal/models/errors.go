package models

import "errors"

// Sentinel errors surfaced by the collection subsystem. Handlers map these
// onto HTTP status codes; services wrap them with context via %w.
var (
	// ErrDuplicateBatch is returned when a batch with the same name already
	// exists. Batch names are deterministic, so a duplicate means the same
	// collection run was already built.
	ErrDuplicateBatch = errors.New("batch with this name already exists")

	// ErrNoEligibleMembers is returned when a build request matches no
	// collectable members. Nothing is persisted.
	ErrNoEligibleMembers = errors.New("no eligible members for collection")

	// ErrInvalidTransition is returned when a transaction status change is
	// not permitted by the transition table. The stored status is untouched.
	ErrInvalidTransition = errors.New("illegal transaction status transition")

	// ErrInvalidRefundAmount is returned when a refund request exceeds the
	// refundable remainder of its source transaction.
	ErrInvalidRefundAmount = errors.New("refund amount exceeds refundable amount")

	// ErrRefundSourceNotSettled is returned when the source transaction of a
	// refund request is not in successful state.
	ErrRefundSourceNotSettled = errors.New("source transaction is not successful")

	// ErrAmbiguousSubmission is returned when a batch submission attempt got
	// no definitive answer from the processor. The batch stays pending and
	// must be verified manually before any retry.
	ErrAmbiguousSubmission = errors.New("submission outcome unknown, manual verification required")

	// ErrAlreadySubmitted is returned when a batch already carries a
	// processor reference and must not be sent again.
	ErrAlreadySubmitted = errors.New("batch already submitted to processor")

	// ErrSubmissionInProgress is returned when another caller holds the
	// submission lock for the batch.
	ErrSubmissionInProgress = errors.New("batch submission already in progress")

	// ErrPastCutoff is returned when the action date cannot be met under the
	// processor's submission windows.
	ErrPastCutoff = errors.New("action date is past the submission cutoff")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)
