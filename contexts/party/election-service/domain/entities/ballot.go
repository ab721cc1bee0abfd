package entities

import (
	"math/big"
	"time"
)

type VoteAttribution struct {
	Candidate string
	Score     float64
}

// Ballot is one voter's positional score vector for an election. Ballots are
// sealed on creation and never updated.
type Ballot struct {
	BallotID        string
	ElectionID      string
	Voter           string
	VoteAttribution []VoteAttribution
	CreatedAt       time.Time
}

// TallyResult is recomputed from the ballot snapshot on every read.
type TallyResult struct {
	ElectionID  string
	Candidates  []string
	TotalScores []float64
	Payout      []*big.Int
	ScoreSum    float64
	BallotCount int
}

type BallotOutcome string

const (
	BallotAccepted BallotOutcome = "accepted"
	BallotRejected BallotOutcome = "rejected"
)

// CastResult is the outcome of a ballot submission. A rejected cast still
// carries the current tally and is not an error.
type CastResult struct {
	Outcome BallotOutcome
	Ballot  Ballot
	Tally   TallyResult
}

func Accepted(ballot Ballot, tally TallyResult) CastResult {
	return CastResult{Outcome: BallotAccepted, Ballot: ballot, Tally: tally}
}

func Rejected(current TallyResult) CastResult {
	return CastResult{Outcome: BallotRejected, Tally: current}
}

func (r CastResult) IsAccepted() bool {
	return r.Outcome == BallotAccepted
}
