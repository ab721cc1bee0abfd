// Package tally holds the vote-tally and proportional-payout computations.
// Everything here is a pure function over a ballot snapshot supplied by the
// caller.
package tally

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
)

// Aggregate folds ballots into per-candidate totals aligned with candidates.
// Sums are accumulated as exact rationals, so the result is the same for every
// ordering of ballots.
func Aggregate(candidates []string, ballots []entities.Ballot) ([]float64, error) {
	sums := make([]*big.Rat, len(candidates))
	for i := range sums {
		sums[i] = new(big.Rat)
	}

	for index, ballot := range ballots {
		if err := ValidateBallot(candidates, ballot); err != nil {
			return nil, fmt.Errorf("ballot %d from %q: %w", index, ballot.Voter, err)
		}
		for i, entry := range ballot.VoteAttribution {
			score, _ := exactScore(entry.Score)
			sums[i].Add(sums[i], score)
		}
	}

	totals := make([]float64, len(sums))
	for i, sum := range sums {
		totals[i], _ = sum.Float64()
	}
	return totals, nil
}

// ValidateBallot checks positional alignment of a ballot against the
// election's candidate list. Mismatches are never truncated or padded.
func ValidateBallot(candidates []string, ballot entities.Ballot) error {
	if len(ballot.VoteAttribution) != len(candidates) {
		return fmt.Errorf("%w: %d entries for %d candidates",
			domainerrors.ErrMalformedBallot, len(ballot.VoteAttribution), len(candidates))
	}
	for i, entry := range ballot.VoteAttribution {
		if strings.TrimSpace(entry.Candidate) == "" || !entities.SameIdentity(entry.Candidate, candidates[i]) {
			return fmt.Errorf("%w: position %d holds %q, expected %q",
				domainerrors.ErrMalformedBallot, i, entry.Candidate, candidates[i])
		}
		if math.IsNaN(entry.Score) || math.IsInf(entry.Score, 0) {
			return fmt.Errorf("%w: position %d score is not a finite number",
				domainerrors.ErrMalformedBallot, i)
		}
	}
	return nil
}

// Spend is the vote budget a ballot consumes under strategy. Quadratic voting
// charges the square of each score.
func Spend(strategy entities.Strategy, attribution []entities.VoteAttribution) float64 {
	var spent float64
	for _, entry := range attribution {
		if strategy == entities.StrategyQuadratic {
			spent += entry.Score * entry.Score
			continue
		}
		spent += entry.Score
	}
	return spent
}

func exactScore(score float64) (*big.Rat, bool) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(score), true
}
