package entities

import (
	"math/big"
	"strings"
	"time"
)

type Strategy string

const (
	StrategyLinear    Strategy = "linear"
	StrategyQuadratic Strategy = "quadratic"
)

// Election is the document a party votes on. Candidates are ordered and the
// order is the alignment key for score and payout vectors.
type Election struct {
	ElectionID     string
	Name           string
	Description    string
	Creator        string
	Strategy       Strategy
	VoteAllocation int
	Candidates     []string
	Voters         []string
	TokenAddress   string
	FundAmount     string
	AnchorTxHash   string
	PaidTxHash     string
	IsActive       bool
	IsPaid         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FundAmountInt parses FundAmount as a base-10 integer in the token's
// smallest unit. ok is false for empty, malformed, or negative amounts.
func (e Election) FundAmountInt() (*big.Int, bool) {
	return ParseFundAmount(e.FundAmount)
}

func (e Election) IsCreator(actorID string) bool {
	return SameIdentity(e.Creator, actorID)
}

func (e Election) IsVoter(voter string) bool {
	for _, item := range e.Voters {
		if SameIdentity(item, voter) {
			return true
		}
	}
	return false
}

// ElectionPatch carries the mutable election fields. Nil fields are left
// unchanged by stores.
type ElectionPatch struct {
	IsActive   *bool
	IsPaid     *bool
	PaidTxHash *string
	UpdatedAt  time.Time
}

// Apply returns a copy of election with the patch applied.
func (p ElectionPatch) Apply(election Election) Election {
	if p.IsActive != nil {
		election.IsActive = *p.IsActive
	}
	if p.IsPaid != nil {
		election.IsPaid = *p.IsPaid
	}
	if p.PaidTxHash != nil {
		election.PaidTxHash = *p.PaidTxHash
	}
	if !p.UpdatedAt.IsZero() {
		election.UpdatedAt = p.UpdatedAt.UTC()
	}
	return election
}

func ParseFundAmount(raw string) (*big.Int, bool) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, false
	}
	return value, true
}

// SameIdentity compares voter, creator, and candidate identifiers. Chain
// addresses show up both checksummed and lower-cased.
func SameIdentity(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func NormalizeIdentity(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
