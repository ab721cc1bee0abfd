package errors

import "errors"

var (
	ErrElectionNotFound        = errors.New("election not found")
	ErrDistributionNotFound    = errors.New("distribution not found")
	ErrAlreadyPaid             = errors.New("election is already paid")
	ErrElectionStillActive     = errors.New("election must be closed before distribution")
	ErrForbidden               = errors.New("only the election creator may distribute")
	ErrNothingToDistribute     = errors.New("no candidate has a positive payout")
	ErrInvalidCandidateAddress = errors.New("candidate is not a valid address")
	ErrPaymentFailed           = errors.New("payment submission failed")
	ErrTransactionFailed       = errors.New("payment transaction reverted")
	ErrPaymentUnconfirmed      = errors.New("payment submitted but not yet mined")
	ErrDistributionInProgress  = errors.New("a distribution for this election is already in progress")
	ErrConflict                = errors.New("distribution conflict")
)
