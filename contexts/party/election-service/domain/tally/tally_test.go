package tally_test

import (
	"math"
	"math/big"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/domain/tally"
)

func ballot(voter string, candidates []string, scores ...float64) entities.Ballot {
	attribution := make([]entities.VoteAttribution, 0, len(scores))
	for i, score := range scores {
		attribution = append(attribution, entities.VoteAttribution{Candidate: candidates[i], Score: score})
	}
	return entities.Ballot{ElectionID: "election-1", Voter: voter, VoteAttribution: attribution}
}

func amounts(payout []*big.Int) []string {
	return lo.Map(payout, func(item *big.Int, _ int) string { return item.String() })
}

var candidates = []string{"A", "B", "C"}

var _ = Describe("Aggregate", func() {
	It("sums scores per candidate position", func() {
		totals, err := tally.Aggregate(candidates, []entities.Ballot{
			ballot("v1", candidates, 1, 2, 3),
			ballot("v2", candidates, 4, 0, 6),
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(totals).To(Equal([]float64{5, 2, 9}))
	})

	It("returns zeros when there are no ballots", func() {
		totals, err := tally.Aggregate(candidates, nil)

		Expect(err).ToNot(HaveOccurred())
		Expect(totals).To(Equal([]float64{0, 0, 0}))
	})

	It("matches candidates regardless of address case", func() {
		addresses := []string{"0xAbC0000000000000000000000000000000000001", "0xdef0000000000000000000000000000000000002"}
		lower := []string{"0xabc0000000000000000000000000000000000001", "0xDEF0000000000000000000000000000000000002"}

		totals, err := tally.Aggregate(addresses, []entities.Ballot{ballot("v1", lower, 2, 3)})

		Expect(err).ToNot(HaveOccurred())
		Expect(totals).To(Equal([]float64{2, 3}))
	})

	Context("when a ballot is malformed", func() {
		It("rejects a ballot missing a candidate", func() {
			_, err := tally.Aggregate(candidates, []entities.Ballot{ballot("v1", candidates, 1, 1)})

			Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
		})

		It("rejects a ballot with an extra entry", func() {
			extra := ballot("v1", []string{"A", "B", "C", "D"}, 1, 1, 1, 1)

			_, err := tally.Aggregate(candidates, []entities.Ballot{extra})

			Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
		})

		It("rejects a misaligned ballot", func() {
			_, err := tally.Aggregate(candidates, []entities.Ballot{ballot("v1", []string{"B", "A", "C"}, 1, 2, 3)})

			Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
		})

		It("rejects an unknown candidate", func() {
			_, err := tally.Aggregate(candidates, []entities.Ballot{ballot("v1", []string{"A", "B", "Z"}, 1, 2, 3)})

			Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
		})

		It("rejects a non-finite score", func() {
			_, err := tally.Aggregate(candidates, []entities.Ballot{ballot("v1", candidates, 1, math.NaN(), 3)})

			Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
		})
	})

	It("is independent of ballot order", func() {
		ballots := []entities.Ballot{
			ballot("v1", candidates, 1e16, 0.1, 3),
			ballot("v2", candidates, 1, 0.2, 0),
			ballot("v3", candidates, 1, 0.3, 7.5),
			ballot("v4", candidates, 1e-3, 1e15, 2),
			ballot("v5", candidates, 1, 0.7, 0.25),
		}
		expected := lo.Must(tally.Aggregate(candidates, ballots))

		rng := rand.New(rand.NewPCG(7, 11))
		for range 50 {
			shuffled := append([]entities.Ballot(nil), ballots...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			Expect(tally.Aggregate(candidates, shuffled)).To(Equal(expected))
		}
	})

	It("keeps totals non-negative for non-negative scores", func() {
		rng := rand.New(rand.NewPCG(3, 5))
		ballots := make([]entities.Ballot, 0, 40)
		for i := range 40 {
			ballots = append(ballots, ballot(string(rune('a'+i)), candidates, rng.Float64()*10, rng.Float64(), float64(rng.IntN(4))))
		}

		totals := lo.Must(tally.Aggregate(candidates, ballots))

		for _, total := range totals {
			Expect(total).To(BeNumerically(">=", 0))
		}
	})
})

var _ = Describe("ComputePayout", func() {
	It("splits the fund proportionally", func() {
		result := tally.ComputePayout([]float64{10, 30, 60}, big.NewInt(1000))

		Expect(amounts(result.Payout)).To(Equal([]string{"100", "300", "600"}))
		Expect(result.ScoreSum).To(Equal(100.0))
	})

	It("keeps every scored candidate when another candidate has no score", func() {
		result := tally.ComputePayout([]float64{0, 25, 75}, big.NewInt(1000))

		Expect(amounts(result.Payout)).To(Equal([]string{"0", "250", "750"}))
	})

	It("pays nothing when every score is zero", func() {
		result := tally.ComputePayout([]float64{0, 0, 0}, big.NewInt(1000))

		Expect(amounts(result.Payout)).To(Equal([]string{"0", "0", "0"}))
		Expect(result.ScoreSum).To(Equal(0.0))
	})

	It("pays nothing from an empty fund", func() {
		result := tally.ComputePayout([]float64{1, 2, 3}, big.NewInt(0))

		Expect(amounts(result.Payout)).To(Equal([]string{"0", "0", "0"}))
		Expect(result.ScoreSum).To(Equal(6.0))
	})

	It("leaves rounding dust undistributed", func() {
		result := tally.ComputePayout([]float64{1, 1, 1}, big.NewInt(10))

		Expect(amounts(result.Payout)).To(Equal([]string{"3", "3", "3"}))
		Expect(result.ScoreSum).To(Equal(3.0))
		Expect(tally.Dust(result.Payout, big.NewInt(10)).String()).To(Equal("1"))
	})

	It("coerces non-finite totals to zero payouts", func() {
		result := tally.ComputePayout([]float64{1, math.Inf(1), 2}, big.NewInt(1000))

		Expect(amounts(result.Payout)).To(Equal([]string{"0", "0", "0"}))
		Expect(result.ScoreSum).To(Equal(0.0))
	})

	It("does not clamp negative totals", func() {
		result := tally.ComputePayout([]float64{-1, 3}, big.NewInt(100))

		Expect(amounts(result.Payout)).To(Equal([]string{"-50", "150"}))
		Expect(result.ScoreSum).To(Equal(2.0))
	})

	It("handles wei-sized funds without precision loss", func() {
		fund, _ := new(big.Int).SetString("1000000000000000000000", 10)

		result := tally.ComputePayout([]float64{1, 2}, fund)

		Expect(amounts(result.Payout)).To(Equal([]string{"333333333333333333333", "666666666666666666666"}))
	})

	It("never pays out more than the fund", func() {
		rng := rand.New(rand.NewPCG(13, 17))
		for range 200 {
			totals := make([]float64, 1+rng.IntN(8))
			for i := range totals {
				totals[i] = float64(rng.IntN(1000)) + rng.Float64()
			}
			fund := big.NewInt(rng.Int64N(1_000_000_000))

			result := tally.ComputePayout(totals, fund)

			Expect(tally.Dust(result.Payout, fund).Sign()).To(BeNumerically(">=", 0))
		}
	})
})

var _ = Describe("HasVoted", func() {
	existing := []entities.Ballot{ballot("0xVoter", candidates, 1, 1, 1)}

	It("finds a ballot for the same election and voter", func() {
		Expect(tally.HasVoted(existing, "election-1", "0xvoter")).To(BeTrue())
	})

	It("ignores other voters and elections", func() {
		Expect(tally.HasVoted(existing, "election-1", "0xother")).To(BeFalse())
		Expect(tally.HasVoted(existing, "election-2", "0xVoter")).To(BeFalse())
	})
})

var _ = Describe("Tally", func() {
	election := entities.Election{
		ElectionID: "election-1",
		Candidates: candidates,
		FundAmount: "1000",
	}

	It("combines aggregation and payout", func() {
		result, err := tally.Tally(election, []entities.Ballot{
			ballot("v1", candidates, 5, 15, 30),
			ballot("v2", candidates, 5, 15, 30),
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.TotalScores).To(Equal([]float64{10, 30, 60}))
		Expect(amounts(result.Payout)).To(Equal([]string{"100", "300", "600"}))
		Expect(result.BallotCount).To(Equal(2))
	})

	It("surfaces malformed ballots", func() {
		_, err := tally.Tally(election, []entities.Ballot{ballot("v1", candidates, 1)})

		Expect(err).To(MatchError(domainerrors.ErrMalformedBallot))
	})
})

var _ = Describe("Spend", func() {
	attribution := []entities.VoteAttribution{{Candidate: "A", Score: 2}, {Candidate: "B", Score: 3}}

	It("charges squares under quadratic voting", func() {
		Expect(tally.Spend(entities.StrategyQuadratic, attribution)).To(Equal(13.0))
	})

	It("charges scores under linear voting", func() {
		Expect(tally.Spend(entities.StrategyLinear, attribution)).To(Equal(5.0))
	})
})
