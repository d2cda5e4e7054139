package errors

import "errors"

var (
	ErrSlotOccupied        = errors.New("reward slot already occupied")
	ErrQuotaExceeded       = errors.New("bonus spot quota exceeded")
	ErrCandidateTerminal   = errors.New("candidate is rejected or completed")
	ErrListingAnnounced    = errors.New("listing winners already announced")
	ErrInvalidTransition   = errors.New("invalid candidate status transition")
	ErrWinnerSpamConflict  = errors.New("winner cannot be labelled spam")
	ErrOperationInProgress = errors.New("another batch operation is in progress for listing")
	ErrNotComplete         = errors.New("winner selection is not complete")
	ErrAlreadyAnnounced    = errors.New("winners already announced")
	ErrStoreFailure        = errors.New("candidate store failure")

	ErrListingNotFound       = errors.New("listing not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrInvalidPosition       = errors.New("invalid reward position")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidLabel          = errors.New("invalid candidate label")
	ErrInvalidStatus         = errors.New("invalid candidate status")
	ErrInvalidTransitionKind = errors.New("invalid batch transition")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrWinnerRequired        = errors.New("project listings require a winner candidate")
	ErrIdempotencyConflict   = errors.New("idempotency key reused with different payload")
)
