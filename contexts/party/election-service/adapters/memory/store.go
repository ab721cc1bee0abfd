package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/ports"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store keeps elections, ballots, idempotency records, and outbox rows in
// process memory. It also serves as the module clock and id generator.
type Store struct {
	mu sync.RWMutex

	elections   map[string]entities.Election
	ballots     map[string][]entities.Ballot
	voters      map[string]struct{}
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord

	now func() time.Time
}

func NewStore(seed []entities.Election) *Store {
	elections := make(map[string]entities.Election, len(seed))
	for _, election := range seed {
		elections[strings.TrimSpace(election.ElectionID)] = cloneElection(election)
	}
	return &Store{
		elections:   elections,
		ballots:     make(map[string][]entities.Ballot),
		voters:      make(map[string]struct{}),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetNow pins the store clock, mainly for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) CreateElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(election.ElectionID)
	if _, exists := s.elections[key]; exists {
		return domainerrors.ErrElectionExists
	}
	s.elections[key] = cloneElection(election)
	return nil
}

func (s *Store) LoadElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return cloneElection(election), nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, cloneElection(election))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

func (s *Store) UpdateElection(
	_ context.Context,
	electionID string,
	patch entities.ElectionPatch,
) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(electionID)
	election, ok := s.elections[key]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	election = patch.Apply(election)
	s.elections[key] = election
	return cloneElection(election), nil
}

func (s *Store) LoadBallots(_ context.Context, electionID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.ballots[strings.TrimSpace(electionID)]
	out := make([]entities.Ballot, 0, len(items))
	for _, ballot := range items {
		out = append(out, cloneBallot(ballot))
	}
	return out, nil
}

func (s *Store) CreateBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(ballot.ElectionID)
	election, ok := s.elections[electionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if !election.IsActive {
		return domainerrors.ErrElectionClosed
	}
	key := voterKey(electionID, ballot.Voter)
	if _, voted := s.voters[key]; voted {
		return domainerrors.ErrDuplicateBallot
	}
	s.voters[key] = struct{}{}
	s.ballots[electionID] = append(s.ballots[electionID], cloneBallot(ballot))
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(record.Key)
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash || existing.ElectionID != record.ElectionID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	record.Key = key
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

// PendingOutboxCount reports unpublished rows.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.published {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func voterKey(electionID string, voter string) string {
	return strings.TrimSpace(electionID) + "|" + entities.NormalizeIdentity(voter)
}

func cloneElection(election entities.Election) entities.Election {
	election.Candidates = append([]string(nil), election.Candidates...)
	election.Voters = append([]string(nil), election.Voters...)
	return election
}

func cloneBallot(ballot entities.Ballot) entities.Ballot {
	ballot.VoteAttribution = append([]entities.VoteAttribution(nil), ballot.VoteAttribution...)
	return ballot
}

var _ ports.DocumentStore = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
