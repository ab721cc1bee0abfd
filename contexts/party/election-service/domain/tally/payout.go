package tally

import (
	"math"
	"math/big"

	"payparty/contexts/party/election-service/domain/entities"
)

type Payout struct {
	Payout   []*big.Int
	ScoreSum float64
}

// ComputePayout splits fundAmount across candidates in proportion to their
// totals: payout[i] = floor(total[i] / sum * fund). Flooring keeps the sum of
// payouts at or below the fund; the remainder (dust) is not redistributed.
//
// A zero score sum, a nil or zero fund, or any non-finite total yields an
// all-zero payout. Negative totals are not clamped.
func ComputePayout(totalScores []float64, fundAmount *big.Int) Payout {
	payout := make([]*big.Int, len(totalScores))
	for i := range payout {
		payout[i] = new(big.Int)
	}

	exact := make([]*big.Rat, len(totalScores))
	sum := new(big.Rat)
	for i, total := range totalScores {
		value, ok := exactScore(total)
		if !ok {
			return Payout{Payout: payout}
		}
		exact[i] = value
		sum.Add(sum, value)
	}

	scoreSum, _ := sum.Float64()
	if math.IsInf(scoreSum, 0) {
		return Payout{Payout: payout}
	}
	if sum.Sign() == 0 || fundAmount == nil || fundAmount.Sign() == 0 {
		return Payout{Payout: payout, ScoreSum: scoreSum}
	}

	fund := new(big.Rat).SetInt(fundAmount)
	for i, value := range exact {
		share := new(big.Rat).Quo(value, sum)
		share.Mul(share, fund)
		payout[i] = floor(share)
	}
	return Payout{Payout: payout, ScoreSum: scoreSum}
}

// Tally aggregates the ballot snapshot of an election and splits its fund.
// An unparseable fund amount is treated as zero.
func Tally(election entities.Election, ballots []entities.Ballot) (entities.TallyResult, error) {
	totals, err := Aggregate(election.Candidates, ballots)
	if err != nil {
		return entities.TallyResult{}, err
	}
	fund, ok := election.FundAmountInt()
	if !ok {
		fund = new(big.Int)
	}
	split := ComputePayout(totals, fund)
	return entities.TallyResult{
		ElectionID:  election.ElectionID,
		Candidates:  append([]string(nil), election.Candidates...),
		TotalScores: totals,
		Payout:      split.Payout,
		ScoreSum:    split.ScoreSum,
		BallotCount: len(ballots),
	}, nil
}

// Dust is what flooring left undistributed.
func Dust(payout []*big.Int, fundAmount *big.Int) *big.Int {
	if fundAmount == nil {
		return new(big.Int)
	}
	remaining := new(big.Int).Set(fundAmount)
	for _, amount := range payout {
		remaining.Sub(remaining, amount)
	}
	return remaining
}

// floor rounds toward negative infinity. big.Int.Div is Euclidean and Rat
// denominators are always positive.
func floor(value *big.Rat) *big.Int {
	return new(big.Int).Div(value.Num(), value.Denom())
}
