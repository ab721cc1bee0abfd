package queries

import (
	"context"
	"sort"
	"strings"

	"payparty/contexts/party/payout-service/domain/entities"
	"payparty/contexts/party/payout-service/ports"
)

type DistributionQueryUseCase struct {
	Repository ports.Repository
}

// ListDistributions returns an election's distributions, oldest first.
func (uc DistributionQueryUseCase) ListDistributions(ctx context.Context, electionID string) ([]entities.Distribution, error) {
	items, err := uc.Repository.ListDistributions(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (uc DistributionQueryUseCase) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	return uc.Repository.GetDistribution(ctx, strings.TrimSpace(distributionID))
}
