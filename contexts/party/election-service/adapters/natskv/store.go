// Package natskv stores election documents in NATS JetStream key-value
// buckets. Ballot uniqueness rides on the bucket's create-if-absent
// semantics and election patches use optimistic revision checks.
package natskv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/ports"
	"payparty/internal/platform/messaging"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go/jetstream"
)

const maxUpdateAttempts = 16

var keyToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Config struct {
	ElectionsBucket   string
	BallotsBucket     string
	IdempotencyBucket string
	IdempotencyTTL    time.Duration
	// EventSubjectPrefix is prepended to the event type when outbox rows are
	// published straight to JetStream.
	EventSubjectPrefix string
}

func (c Config) withDefaults() Config {
	if c.ElectionsBucket == "" {
		c.ElectionsBucket = "party_elections"
	}
	if c.BallotsBucket == "" {
		c.BallotsBucket = "party_ballots"
	}
	if c.IdempotencyBucket == "" {
		c.IdempotencyBucket = "party_idempotency"
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if c.EventSubjectPrefix == "" {
		c.EventSubjectPrefix = "events"
	}
	return c
}

type Store struct {
	js          jetstream.JetStream
	elections   jetstream.KeyValue
	ballots     jetstream.KeyValue
	idempotency jetstream.KeyValue
	config      Config
	logger      *slog.Logger
}

func NewStore(ctx context.Context, js jetstream.JetStream, config Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()

	elections, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:  config.ElectionsBucket,
		History: 5,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, err
	}
	ballots, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:  config.BallotsBucket,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, err
	}
	idempotency, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:  config.IdempotencyBucket,
		TTL:     config.IdempotencyTTL,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		js:          js,
		elections:   elections,
		ballots:     ballots,
		idempotency: idempotency,
		config:      config,
		logger:      logger,
	}, nil
}

func ensureBucket(ctx context.Context, js jetstream.JetStream, config jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.CreateKeyValue(ctx, config)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketExists) {
		return nil, fmt.Errorf("failed to create bucket %s: %w", config.Bucket, err)
	}
	kv, err = js.KeyValue(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", config.Bucket, err)
	}
	return kv, nil
}

func (s *Store) CreateElection(ctx context.Context, election entities.Election) error {
	key, ok := electionKey(election.ElectionID)
	if !ok {
		return fmt.Errorf("%w: election id %q is not a valid key", domainerrors.ErrInvalidElectionInput, election.ElectionID)
	}
	payload, err := json.Marshal(electionDocumentFromEntity(election))
	if err != nil {
		return s.logError("party_kv_create_election_marshal_failed", err, "election_id", key)
	}
	if _, err := s.elections.Create(ctx, key, payload); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %w", domainerrors.ErrElectionExists, err)
		}
		return s.logError("party_kv_create_election_failed", err, "election_id", key)
	}
	return nil
}

func (s *Store) LoadElection(ctx context.Context, electionID string) (entities.Election, error) {
	election, _, err := s.loadElectionEntry(ctx, electionID)
	return election, err
}

func (s *Store) loadElectionEntry(ctx context.Context, electionID string) (entities.Election, uint64, error) {
	key, ok := electionKey(electionID)
	if !ok {
		return entities.Election{}, 0, domainerrors.ErrElectionNotFound
	}
	entry, err := s.elections.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return entities.Election{}, 0, fmt.Errorf("%w: %w", domainerrors.ErrElectionNotFound, err)
		}
		return entities.Election{}, 0, s.logError("party_kv_load_election_failed", err, "election_id", key)
	}
	var doc electionDocument
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return entities.Election{}, 0, s.logError("party_kv_decode_election_failed", err, "election_id", key)
	}
	return doc.toEntity(), entry.Revision(), nil
}

func (s *Store) ListElections(ctx context.Context) ([]entities.Election, error) {
	lister, err := s.elections.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, s.logError("party_kv_list_elections_failed", err)
	}
	defer lister.Stop() //nolint:errcheck

	items := make([]entities.Election, 0)
	for key := range lister.Keys() {
		election, err := s.LoadElection(ctx, key)
		if err != nil {
			if errors.Is(err, domainerrors.ErrElectionNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

// UpdateElection retries the read-modify-write until the revision it read is
// still current.
func (s *Store) UpdateElection(
	ctx context.Context,
	electionID string,
	patch entities.ElectionPatch,
) (entities.Election, error) {
	key, ok := electionKey(electionID)
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, revision, err := s.loadElectionEntry(ctx, key)
		if err != nil {
			return entities.Election{}, err
		}
		updated := patch.Apply(current)
		payload, err := json.Marshal(electionDocumentFromEntity(updated))
		if err != nil {
			return entities.Election{}, s.logError("party_kv_update_election_marshal_failed", err, "election_id", key)
		}
		_, err = s.elections.Update(ctx, key, payload, revision)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, jetstream.ErrKeyExists) {
			// Revision moved underneath us.
			continue
		}
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return entities.Election{}, fmt.Errorf("%w: %w", domainerrors.ErrElectionNotFound, err)
		}
		return entities.Election{}, s.logError("party_kv_update_election_failed", err, "election_id", key)
	}
	return entities.Election{}, fmt.Errorf("%w: election %s kept changing", domainerrors.ErrConflict, key)
}

func (s *Store) LoadBallots(ctx context.Context, electionID string) ([]entities.Ballot, error) {
	key, ok := electionKey(electionID)
	if !ok {
		return nil, nil
	}
	lister, err := s.ballots.ListKeysFiltered(ctx, key+".>")
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, s.logError("party_kv_list_ballots_failed", err, "election_id", key)
	}
	defer lister.Stop() //nolint:errcheck

	items := make([]entities.Ballot, 0)
	for ballotKey := range lister.Keys() {
		entry, err := s.ballots.Get(ctx, ballotKey)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, s.logError("party_kv_load_ballot_failed", err, "ballot_key", ballotKey)
		}
		var doc ballotDocument
		if err := json.Unmarshal(entry.Value(), &doc); err != nil {
			return nil, s.logError("party_kv_decode_ballot_failed", err, "ballot_key", ballotKey)
		}
		items = append(items, doc.toEntity())
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	key, ok := ballotKey(ballot.ElectionID, ballot.Voter)
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	payload, err := json.Marshal(ballotDocumentFromEntity(ballot))
	if err != nil {
		return s.logError("party_kv_create_ballot_marshal_failed", err, "ballot_key", key)
	}
	if _, err := s.ballots.Create(ctx, key, payload); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %w", domainerrors.ErrDuplicateBallot, err)
		}
		return s.logError("party_kv_create_ballot_failed", err, "ballot_key", key)
	}
	return s.withdrawIfClosed(ctx, ballot.ElectionID, key)
}

// withdrawIfClosed re-reads the election after a ballot is written. A close
// that landed in between wins and the ballot is deleted; a close after the
// re-read is ordered after the ballot.
func (s *Store) withdrawIfClosed(ctx context.Context, electionID string, key string) error {
	election, err := s.LoadElection(ctx, electionID)
	if err != nil {
		return err
	}
	if election.IsActive {
		return nil
	}
	if err := s.ballots.Delete(ctx, key); err != nil {
		return s.logError("party_kv_withdraw_ballot_failed", err, "ballot_key", key)
	}
	return domainerrors.ErrElectionClosed
}

func (s *Store) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	entry, err := s.idempotency.Get(ctx, idempotencyKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, s.logError("party_kv_idempotency_get_failed", err)
	}
	var record idempotencyDocument
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return ports.IdempotencyRecord{}, false, s.logError("party_kv_idempotency_decode_failed", err)
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		ElectionID:  record.ElectionID,
		ExpiresAt:   record.ExpiresAt,
	}, true, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	doc := idempotencyDocument{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: record.RequestHash,
		ElectionID:  record.ElectionID,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return s.logError("party_kv_idempotency_marshal_failed", err)
	}
	_, err = s.idempotency.Create(ctx, idempotencyKey(doc.Key), payload)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return s.logError("party_kv_idempotency_put_failed", err)
	}
	existing, found, err := s.Get(ctx, doc.Key, time.Time{})
	if err != nil {
		return err
	}
	if found && (existing.RequestHash != doc.RequestHash || existing.ElectionID != doc.ElectionID) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

// AppendOutbox publishes the envelope directly; JetStream de-duplicates on
// the event id within the stream's duplicate window.
func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return s.logError("party_kv_outbox_marshal_failed", err, "event_id", envelope.EventID)
	}
	subject := messaging.EventSubject(s.config.EventSubjectPrefix, envelope.EventType)
	if _, err := s.js.Publish(ctx, subject, payload, jetstream.WithMsgID(envelope.EventID)); err != nil {
		return s.logError("party_kv_outbox_publish_failed", err,
			"event_id", envelope.EventID,
			"subject", subject,
		)
	}
	return nil
}

func (s *Store) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "party/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("election kv operation failed", fields...)
	return err
}

func electionKey(electionID string) (string, bool) {
	key := strings.TrimSpace(electionID)
	return key, keyToken.MatchString(key)
}

// ballotKey nests ballots under their election so one filtered listing
// returns an election's snapshot. The voter is hex encoded after
// normalization since addresses and DIDs may carry characters KV keys reject.
func ballotKey(electionID string, voter string) (string, bool) {
	election, ok := electionKey(electionID)
	normalized := entities.NormalizeIdentity(voter)
	if !ok || normalized == "" {
		return "", false
	}
	return election + "." + hex.EncodeToString([]byte(normalized)), true
}

func idempotencyKey(key string) string {
	return hex.EncodeToString([]byte(strings.TrimSpace(key)))
}

type electionDocument struct {
	ElectionID     string    `json:"election_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Creator        string    `json:"creator"`
	Kind           string    `json:"kind"`
	VoteAllocation int       `json:"vote_allocation"`
	Candidates     []string  `json:"candidates"`
	Voters         []string  `json:"voters"`
	TokenAddress   string    `json:"token_address"`
	FundAmount     string    `json:"fund_amount"`
	AnchorTxHash   string    `json:"anchor_tx_hash"`
	PaidTxHash     string    `json:"paid_tx_hash"`
	IsActive       bool      `json:"is_active"`
	IsPaid         bool      `json:"is_paid"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func electionDocumentFromEntity(election entities.Election) electionDocument {
	return electionDocument{
		ElectionID:     strings.TrimSpace(election.ElectionID),
		Name:           election.Name,
		Description:    election.Description,
		Creator:        election.Creator,
		Kind:           string(election.Strategy),
		VoteAllocation: election.VoteAllocation,
		Candidates:     election.Candidates,
		Voters:         election.Voters,
		TokenAddress:   election.TokenAddress,
		FundAmount:     election.FundAmount,
		AnchorTxHash:   election.AnchorTxHash,
		PaidTxHash:     election.PaidTxHash,
		IsActive:       election.IsActive,
		IsPaid:         election.IsPaid,
		CreatedAt:      election.CreatedAt.UTC(),
		UpdatedAt:      election.UpdatedAt.UTC(),
	}
}

func (d electionDocument) toEntity() entities.Election {
	return entities.Election{
		ElectionID:     d.ElectionID,
		Name:           d.Name,
		Description:    d.Description,
		Creator:        d.Creator,
		Strategy:       entities.Strategy(d.Kind),
		VoteAllocation: d.VoteAllocation,
		Candidates:     d.Candidates,
		Voters:         d.Voters,
		TokenAddress:   d.TokenAddress,
		FundAmount:     d.FundAmount,
		AnchorTxHash:   d.AnchorTxHash,
		PaidTxHash:     d.PaidTxHash,
		IsActive:       d.IsActive,
		IsPaid:         d.IsPaid,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type voteAttributionDocument struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

type ballotDocument struct {
	BallotID        string                    `json:"ballot_id"`
	ElectionID      string                    `json:"election_id"`
	Voter           string                    `json:"voter"`
	VoteAttribution []voteAttributionDocument `json:"vote_attribution"`
	CreatedAt       time.Time                 `json:"created_at"`
}

func ballotDocumentFromEntity(ballot entities.Ballot) ballotDocument {
	doc := ballotDocument{
		BallotID:        ballot.BallotID,
		ElectionID:      strings.TrimSpace(ballot.ElectionID),
		Voter:           strings.TrimSpace(ballot.Voter),
		VoteAttribution: make([]voteAttributionDocument, 0, len(ballot.VoteAttribution)),
		CreatedAt:       ballot.CreatedAt.UTC(),
	}
	for _, entry := range ballot.VoteAttribution {
		doc.VoteAttribution = append(doc.VoteAttribution, voteAttributionDocument{
			Candidate: entry.Candidate,
			Score:     entry.Score,
		})
	}
	return doc
}

func (d ballotDocument) toEntity() entities.Ballot {
	attribution := make([]entities.VoteAttribution, 0, len(d.VoteAttribution))
	for _, entry := range d.VoteAttribution {
		attribution = append(attribution, entities.VoteAttribution{
			Candidate: entry.Candidate,
			Score:     entry.Score,
		})
	}
	return entities.Ballot{
		BallotID:        d.BallotID,
		ElectionID:      d.ElectionID,
		Voter:           d.Voter,
		VoteAttribution: attribution,
		CreatedAt:       d.CreatedAt.UTC(),
	}
}

type idempotencyDocument struct {
	Key         string    `json:"key"`
	RequestHash string    `json:"request_hash"`
	ElectionID  string    `json:"election_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

var _ ports.DocumentStore = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
