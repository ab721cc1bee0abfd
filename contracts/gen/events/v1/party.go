package v1

const (
	EventElectionCreated     = "party.election.created"
	EventElectionClosed      = "party.election.closed"
	EventElectionPaid        = "party.election.paid"
	EventBallotCast          = "party.ballot.cast"
	EventPayoutDistributed   = "party.payout.distributed"
	PartyEventsSchemaVersion = 1
)

// PartyEventTypes lists every event type emitted by the party services.
// Stream subjects are derived from it.
var PartyEventTypes = []string{
	EventElectionCreated,
	EventElectionClosed,
	EventElectionPaid,
	EventBallotCast,
	EventPayoutDistributed,
}

type ElectionCreated struct {
	ElectionID   string   `json:"election_id"`
	Creator      string   `json:"creator"`
	Candidates   []string `json:"candidates"`
	FundAmount   string   `json:"fund_amount"`
	TokenAddress string   `json:"token_address,omitempty"`
	AnchorTxHash string   `json:"anchor_tx_hash,omitempty"`
	OccurredAt   string   `json:"occurred_at"`
}

type ElectionClosed struct {
	ElectionID string `json:"election_id"`
	ClosedBy   string `json:"closed_by"`
	OccurredAt string `json:"occurred_at"`
}

type ElectionPaid struct {
	ElectionID string `json:"election_id"`
	PaidBy     string `json:"paid_by"`
	TxHash     string `json:"tx_hash"`
	OccurredAt string `json:"occurred_at"`
}

type BallotCast struct {
	ElectionID  string    `json:"election_id"`
	BallotID    string    `json:"ballot_id"`
	Voter       string    `json:"voter"`
	TotalScores []float64 `json:"total_scores"`
	OccurredAt  string    `json:"occurred_at"`
}

type PayoutDistributed struct {
	ElectionID     string   `json:"election_id"`
	DistributionID string   `json:"distribution_id"`
	Account        string   `json:"account"`
	Candidates     []string `json:"candidates"`
	Amounts        []string `json:"amounts"`
	TokenAddress   string   `json:"token_address,omitempty"`
	TxHash         string   `json:"tx_hash"`
	OccurredAt     string   `json:"occurred_at"`
}
