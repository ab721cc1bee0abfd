package errors

import "errors"

var (
	ErrInvalidElectionInput    = errors.New("invalid election input")
	ErrElectionNotFound        = errors.New("election not found")
	ErrElectionExists          = errors.New("election already exists")
	ErrElectionClosed          = errors.New("election is not active")
	ErrElectionAlreadyPaid     = errors.New("election is already paid")
	ErrForbidden               = errors.New("only the election creator may perform this action")
	ErrMalformedBallot         = errors.New("malformed ballot")
	ErrInvalidBallotInput      = errors.New("invalid ballot input")
	ErrBallotExceedsAllocation = errors.New("ballot exceeds vote allocation")
	ErrVoterNotEligible        = errors.New("voter is not eligible for this election")
	ErrDuplicateBallot         = errors.New("voter already cast a ballot for this election")
	ErrConflict                = errors.New("election conflict")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key conflict")
	ErrAnchorFailed            = errors.New("election anchor transaction failed")
)
