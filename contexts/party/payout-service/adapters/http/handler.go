package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	application "payparty/contexts/party/payout-service/application"
	"payparty/contexts/party/payout-service/application/commands"
	"payparty/contexts/party/payout-service/application/queries"
	"payparty/contexts/party/payout-service/domain/entities"
	httptransport "payparty/contexts/party/payout-service/transport/http"

	"github.com/samber/lo"
)

type Handler struct {
	Distributions commands.DistributeUseCase
	Queries       queries.DistributionQueryUseCase
	Logger        *slog.Logger
}

// DistributeHandler godoc
// @Summary Distribute an election payout
// @Description Pays every candidate with a positive payout in one Diplomat payElection transaction, marks the election paid, and forwards the receipt.
// @Tags party-payouts
// @Produce json
// @Param X-User-Id header string true "Creator address"
// @Param election_id path string true "Election id"
// @Success 201 {object} httptransport.DistributionResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Failure 504 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/distribute [post]
func (h Handler) DistributeHandler(ctx context.Context, electionID string, actorID string) (httptransport.DistributionResponse, error) {
	logger := application.ResolveLogger(h.Logger, "transport")
	distribution, err := h.Distributions.Distribute(ctx, commands.DistributeCommand{
		ElectionID: electionID,
		ActorID:    actorID,
	})
	if err != nil {
		logger.Error("distribute request failed",
			"event", "http_party_distribute_failed",
			"election_id", electionID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return httptransport.DistributionResponse{}, err
	}
	return mapDistribution(distribution), nil
}

// ListDistributionsHandler godoc
// @Summary List distributions
// @Description Returns the payout transactions recorded for an election, oldest first.
// @Tags party-payouts
// @Produce json
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.ListDistributionsResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/distributions [get]
func (h Handler) ListDistributionsHandler(ctx context.Context, electionID string) (httptransport.ListDistributionsResponse, error) {
	items, err := h.Queries.ListDistributions(ctx, electionID)
	if err != nil {
		return httptransport.ListDistributionsResponse{}, err
	}
	return httptransport.ListDistributionsResponse{
		Items: lo.Map(items, func(item entities.Distribution, _ int) httptransport.DistributionResponse {
			return mapDistribution(item)
		}),
	}, nil
}

func mapDistribution(distribution entities.Distribution) httptransport.DistributionResponse {
	total := "0"
	if distribution.Total != nil {
		total = distribution.Total.String()
	}
	return httptransport.DistributionResponse{
		DistributionID: distribution.DistributionID,
		ElectionID:     distribution.ElectionID,
		Account:        distribution.Account,
		Candidates:     distribution.Candidates,
		Amounts: lo.Map(distribution.Amounts, func(amount *big.Int, _ int) string {
			if amount == nil {
				return "0"
			}
			return amount.String()
		}),
		Total:           total,
		TokenAddress:    distribution.TokenAddress,
		TxHash:          distribution.TxHash,
		BlockNumber:     distribution.BlockNumber,
		Status:          string(distribution.Status),
		ReceiptStatus:   string(distribution.ReceiptStatus),
		ReceiptAttempts: distribution.ReceiptAttempts,
		CreatedAt:       distribution.CreatedAt.UTC().Format(time.RFC3339),
	}
}
