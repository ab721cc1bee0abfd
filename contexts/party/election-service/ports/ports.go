package ports

import (
	"context"
	"time"

	"payparty/contexts/party/election-service/domain/entities"
	eventsv1 "payparty/contracts/gen/events/v1"
)

// DocumentStore is the election and ballot document client. Stores persist
// what they are given and compute nothing.
type DocumentStore interface {
	CreateElection(ctx context.Context, election entities.Election) error
	LoadElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	UpdateElection(ctx context.Context, electionID string, patch entities.ElectionPatch) (entities.Election, error)
	LoadBallots(ctx context.Context, electionID string) ([]entities.Ballot, error)
	// CreateBallot returns ErrDuplicateBallot when the (election, voter) pair
	// already holds a ballot and ErrElectionClosed when the election closed
	// after the caller read it.
	CreateBallot(ctx context.Context, ballot entities.Ballot) error
}

// ElectionAnchor registers an election id with the on-chain Diplomat
// contract and returns the transaction hash.
type ElectionAnchor interface {
	AnchorElection(ctx context.Context, electionID string) (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ElectionID  string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type EventEnvelope = eventsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
