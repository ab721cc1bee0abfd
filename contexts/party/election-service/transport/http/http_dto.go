package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Candidates     []string `json:"candidates"`
	Voters         []string `json:"voters"`
	Kind           string   `json:"kind"`
	VoteAllocation int      `json:"vote_allocation"`
	TokenAddress   string   `json:"token_address,omitempty"`
	FundAmount     string   `json:"fund_amount"`
}

type ElectionResponse struct {
	ElectionID     string   `json:"election_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Creator        string   `json:"creator"`
	Kind           string   `json:"kind"`
	VoteAllocation int      `json:"vote_allocation"`
	Candidates     []string `json:"candidates"`
	Voters         []string `json:"voters"`
	TokenAddress   string   `json:"token_address,omitempty"`
	FundAmount     string   `json:"fund_amount"`
	AnchorTxHash   string   `json:"anchor_tx_hash,omitempty"`
	PaidTxHash     string   `json:"paid_tx_hash,omitempty"`
	IsActive       bool     `json:"is_active"`
	IsPaid         bool     `json:"is_paid"`
	CreatedAt      string   `json:"created_at"`
	Replayed       bool     `json:"replayed,omitempty"`
}

type ListElectionsResponse struct {
	Items []ElectionResponse `json:"items"`
}

type VoteAttribution struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

type CastBallotRequest struct {
	VoteAttribution []VoteAttribution `json:"vote_attribution"`
}

// TallyResponse carries payout amounts as base-10 strings; wei values do not
// fit a JSON number.
type TallyResponse struct {
	ElectionID  string    `json:"election_id"`
	Candidates  []string  `json:"candidates"`
	TotalScores []float64 `json:"total_scores"`
	Payout      []string  `json:"payout"`
	ScoreSum    float64   `json:"score_sum"`
	BallotCount int       `json:"ballot_count"`
}

type CastBallotResponse struct {
	Status   string        `json:"status"`
	BallotID string        `json:"ballot_id,omitempty"`
	Tally    TallyResponse `json:"tally"`
}

type ElectionStateResponse struct {
	Election ElectionResponse `json:"election"`
	Tally    TallyResponse    `json:"tally"`
}

type CandidateScoresResponse struct {
	ElectionID  string    `json:"election_id"`
	Candidates  []string  `json:"candidates"`
	TotalScores []float64 `json:"total_scores"`
}

type HasVotedResponse struct {
	ElectionID string `json:"election_id"`
	Voter      string `json:"voter"`
	HasVoted   bool   `json:"has_voted"`
}
