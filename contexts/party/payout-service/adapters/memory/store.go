package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"
	domainerrors "payparty/contexts/party/payout-service/domain/errors"
	"payparty/contexts/party/payout-service/ports"

	"github.com/google/uuid"
)

// Store keeps distributions in process memory and doubles as the module clock
// and id generator.
type Store struct {
	mu            sync.RWMutex
	distributions map[string]entities.Distribution
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		distributions: make(map[string]entities.Distribution),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) CreateDistribution(_ context.Context, distribution entities.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.distributions[distribution.DistributionID]; exists {
		return domainerrors.ErrConflict
	}
	if distribution.HoldsElection() {
		for _, existing := range s.distributions {
			if existing.ElectionID == distribution.ElectionID && existing.HoldsElection() {
				return domainerrors.ErrConflict
			}
		}
	}
	s.distributions[distribution.DistributionID] = distribution.Clone()
	return nil
}

func (s *Store) UpdateDistribution(_ context.Context, distribution entities.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.distributions[distribution.DistributionID]; !exists {
		return domainerrors.ErrDistributionNotFound
	}
	s.distributions[distribution.DistributionID] = distribution.Clone()
	return nil
}

func (s *Store) GetDistribution(_ context.Context, distributionID string) (entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	distribution, ok := s.distributions[strings.TrimSpace(distributionID)]
	if !ok {
		return entities.Distribution{}, domainerrors.ErrDistributionNotFound
	}
	return distribution.Clone(), nil
}

func (s *Store) ListDistributions(_ context.Context, electionID string) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Distribution, 0)
	for _, distribution := range s.distributions {
		if distribution.ElectionID == electionID {
			items = append(items, distribution.Clone())
		}
	}
	sortByCreation(items)
	return items, nil
}

func (s *Store) ListPendingReceipts(_ context.Context, limit int, maxAttempts int) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Distribution, 0)
	for _, distribution := range s.distributions {
		if distribution.NeedsReceipt() && distribution.ReceiptAttempts < maxAttempts {
			items = append(items, distribution.Clone())
		}
	}
	sortByCreation(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortByCreation(items []entities.Distribution) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].DistributionID < items[j].DistributionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
