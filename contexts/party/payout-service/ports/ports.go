package ports

import (
	"context"
	"math/big"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"
	eventsv1 "payparty/contracts/gen/events/v1"
)

// PayoutPlan is the election side of a distribution: the final payout vector
// aligned with the candidate list, plus the lifecycle flags that gate it.
type PayoutPlan struct {
	ElectionID   string
	Creator      string
	Candidates   []string
	Amounts      []*big.Int
	TokenAddress string
	IsActive     bool
	IsPaid       bool
}

type Elections interface {
	FinalPayout(ctx context.Context, electionID string) (PayoutPlan, error)
	MarkPaid(ctx context.Context, electionID string, actorID string, txHash string) error
}

type PayElectionRequest struct {
	ElectionID   string
	Candidates   []string
	Amounts      []*big.Int
	TokenAddress string
}

// PaymentGateway submits payElection and waits for it to be mined. A mined but
// reverted transaction is returned with Success=false, not as an error. When
// the transaction was broadcast but is not mined yet, PayElection returns the
// receipt with only TxHash set together with ErrPaymentUnconfirmed, and
// TransactionStatus answers the same way until it is mined.
type PaymentGateway interface {
	PayElection(ctx context.Context, req PayElectionRequest) (entities.TransactionReceipt, error)
	TransactionStatus(ctx context.Context, txHash string) (entities.TransactionReceipt, error)
}

type ReceiptSink interface {
	PutReceipt(ctx context.Context, electionID string, receipt entities.Receipt) error
}

type Repository interface {
	// CreateDistribution returns ErrConflict when the election already has a
	// row that holds it (see Distribution.HoldsElection).
	CreateDistribution(ctx context.Context, distribution entities.Distribution) error
	UpdateDistribution(ctx context.Context, distribution entities.Distribution) error
	GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error)
	ListDistributions(ctx context.Context, electionID string) ([]entities.Distribution, error)
	// ListPendingReceipts returns confirmed distributions whose receipt is
	// still pending and has been attempted fewer than maxAttempts times.
	ListPendingReceipts(ctx context.Context, limit int, maxAttempts int) ([]entities.Distribution, error)
}

type EventEnvelope = eventsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
