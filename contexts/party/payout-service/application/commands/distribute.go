package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	application "payparty/contexts/party/payout-service/application"
	"payparty/contexts/party/payout-service/domain/entities"
	domainerrors "payparty/contexts/party/payout-service/domain/errors"
	"payparty/contexts/party/payout-service/ports"
	eventsv1 "payparty/contracts/gen/events/v1"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

type DistributeCommand struct {
	ElectionID string
	ActorID    string
}

// DistributeUseCase pays a closed election once. Events and Receipts are
// optional; a nil receipt sink leaves every receipt pending for the worker.
// A distribution row is claimed before the gateway is called, so retries and
// concurrent calls resume that row instead of paying again.
type DistributeUseCase struct {
	Elections  ports.Elections
	Gateway    ports.PaymentGateway
	Receipts   ports.ReceiptSink
	Repository ports.Repository
	Events     ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type payoutRow struct {
	candidate string
	amount    *big.Int
}

func (uc DistributeUseCase) Distribute(ctx context.Context, cmd DistributeCommand) (entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger, "application")
	electionID := strings.TrimSpace(cmd.ElectionID)
	actorID := strings.TrimSpace(cmd.ActorID)

	plan, err := uc.Elections.FinalPayout(ctx, electionID)
	if err != nil {
		return entities.Distribution{}, err
	}
	if plan.IsPaid {
		return entities.Distribution{}, domainerrors.ErrAlreadyPaid
	}
	if plan.IsActive {
		return entities.Distribution{}, domainerrors.ErrElectionStillActive
	}
	if !entities.SameIdentity(plan.Creator, actorID) {
		logger.Warn("distribution forbidden",
			"event", "party_payout_distribute_forbidden",
			"election_id", electionID,
			"actor_id", actorID,
		)
		return entities.Distribution{}, domainerrors.ErrForbidden
	}
	held, found, err := uc.heldDistribution(ctx, electionID)
	if err != nil {
		return entities.Distribution{}, err
	}
	if found {
		return uc.resume(ctx, logger, held)
	}
	if len(plan.Candidates) != len(plan.Amounts) {
		return entities.Distribution{}, fmt.Errorf("%w: payout has %d amounts for %d candidates",
			domainerrors.ErrConflict, len(plan.Amounts), len(plan.Candidates))
	}

	rows := lo.Filter(
		lo.Zip2(plan.Candidates, plan.Amounts),
		func(item lo.Tuple2[string, *big.Int], _ int) bool {
			return item.B != nil && item.B.Sign() > 0
		},
	)
	if len(rows) == 0 {
		return entities.Distribution{}, domainerrors.ErrNothingToDistribute
	}
	payout := lo.Map(rows, func(item lo.Tuple2[string, *big.Int], _ int) payoutRow {
		return payoutRow{candidate: strings.TrimSpace(item.A), amount: new(big.Int).Set(item.B)}
	})
	if invalid, found := lo.Find(payout, func(row payoutRow) bool {
		return !common.IsHexAddress(row.candidate)
	}); found {
		return entities.Distribution{}, fmt.Errorf("%w: %q", domainerrors.ErrInvalidCandidateAddress, invalid.candidate)
	}

	req := ports.PayElectionRequest{
		ElectionID:   electionID,
		Candidates:   lo.Map(payout, func(row payoutRow, _ int) string { return row.candidate }),
		Amounts:      lo.Map(payout, func(row payoutRow, _ int) *big.Int { return row.amount }),
		TokenAddress: strings.TrimSpace(plan.TokenAddress),
	}

	distributionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Distribution{}, err
	}
	now := uc.now()
	distribution := entities.Distribution{
		DistributionID: distributionID,
		ElectionID:     electionID,
		Account:        actorID,
		Candidates:     req.Candidates,
		Amounts:        req.Amounts,
		Total:          entities.SumAmounts(req.Amounts),
		TokenAddress:   req.TokenAddress,
		Status:         entities.DistributionSubmitting,
		ReceiptStatus:  entities.ReceiptPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// The submitting row is the per-election claim; the store refuses a second
	// one until this row fails.
	if err := uc.Repository.CreateDistribution(ctx, distribution); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return entities.Distribution{}, fmt.Errorf("%w: %s", domainerrors.ErrDistributionInProgress, electionID)
		}
		return entities.Distribution{}, err
	}

	receipt, err := uc.Gateway.PayElection(ctx, req)
	if err != nil {
		distribution.UpdatedAt = uc.now()
		if errors.Is(err, domainerrors.ErrPaymentUnconfirmed) {
			distribution.TxHash = receipt.TxHash
			uc.saveProgress(ctx, logger, distribution)
			logger.Warn("payment submitted but not mined",
				"event", "party_payout_payment_unconfirmed",
				"election_id", electionID,
				"tx_hash", receipt.TxHash,
				"error", err.Error(),
			)
			return entities.Distribution{}, fmt.Errorf("%w: %s", domainerrors.ErrPaymentUnconfirmed, receipt.TxHash)
		}
		distribution.Status = entities.DistributionFailed
		uc.saveProgress(ctx, logger, distribution)
		logger.Error("payment submission failed",
			"event", "party_payout_payment_failed",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Distribution{}, fmt.Errorf("%w: %w", domainerrors.ErrPaymentFailed, err)
	}
	return uc.settle(ctx, logger, distribution, receipt)
}

func (uc DistributeUseCase) heldDistribution(ctx context.Context, electionID string) (entities.Distribution, bool, error) {
	items, err := uc.Repository.ListDistributions(ctx, electionID)
	if err != nil {
		return entities.Distribution{}, false, err
	}
	held, found := lo.Find(items, func(item entities.Distribution) bool {
		return item.HoldsElection()
	})
	return held, found, nil
}

// resume finishes a distribution left behind by an earlier call. A confirmed
// row only needs the election marked paid; a submitting row with a hash is
// settled from the chain. The gateway is never asked to pay again.
func (uc DistributeUseCase) resume(
	ctx context.Context,
	logger *slog.Logger,
	held entities.Distribution,
) (entities.Distribution, error) {
	logger.Info("resuming distribution",
		"event", "party_payout_distribution_resumed",
		"election_id", held.ElectionID,
		"distribution_id", held.DistributionID,
		"status", string(held.Status),
		"tx_hash", held.TxHash,
	)
	if held.Status == entities.DistributionConfirmed {
		return uc.finish(ctx, logger, held)
	}
	if held.TxHash == "" {
		return entities.Distribution{}, fmt.Errorf("%w: %s", domainerrors.ErrDistributionInProgress, held.ElectionID)
	}
	receipt, err := uc.Gateway.TransactionStatus(ctx, held.TxHash)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPaymentUnconfirmed) {
			return entities.Distribution{}, fmt.Errorf("%w: %s", domainerrors.ErrPaymentUnconfirmed, held.TxHash)
		}
		return entities.Distribution{}, fmt.Errorf("look up tx %s: %w", held.TxHash, err)
	}
	return uc.settle(ctx, logger, held, receipt)
}

// settle records a mined transaction. A revert releases the election for a
// new attempt.
func (uc DistributeUseCase) settle(
	ctx context.Context,
	logger *slog.Logger,
	distribution entities.Distribution,
	receipt entities.TransactionReceipt,
) (entities.Distribution, error) {
	distribution.TxHash = receipt.TxHash
	distribution.BlockNumber = receipt.BlockNumber
	distribution.UpdatedAt = uc.now()
	if !receipt.Success {
		distribution.Status = entities.DistributionFailed
		uc.saveProgress(ctx, logger, distribution)
		logger.Warn("payment transaction reverted",
			"event", "party_payout_transaction_reverted",
			"election_id", distribution.ElectionID,
			"tx_hash", receipt.TxHash,
		)
		return entities.Distribution{}, fmt.Errorf("%w: %s", domainerrors.ErrTransactionFailed, receipt.TxHash)
	}

	distribution.Status = entities.DistributionConfirmed
	if err := uc.Repository.UpdateDistribution(ctx, distribution); err != nil {
		logger.Error("confirmed payment could not be recorded",
			"event", "party_payout_confirm_record_failed",
			"election_id", distribution.ElectionID,
			"distribution_id", distribution.DistributionID,
			"tx_hash", receipt.TxHash,
			"error", err.Error(),
		)
		return entities.Distribution{}, err
	}
	return uc.finish(ctx, logger, distribution)
}

func (uc DistributeUseCase) finish(
	ctx context.Context,
	logger *slog.Logger,
	distribution entities.Distribution,
) (entities.Distribution, error) {
	if err := uc.Elections.MarkPaid(ctx, distribution.ElectionID, distribution.Account, distribution.TxHash); err != nil {
		logger.Error("election mark paid failed after payment",
			"event", "party_payout_mark_paid_failed",
			"election_id", distribution.ElectionID,
			"tx_hash", distribution.TxHash,
			"error", err.Error(),
		)
		return entities.Distribution{}, err
	}

	uc.publishDistributed(ctx, logger, distribution)
	if distribution.NeedsReceipt() {
		distribution = uc.deliverReceipt(ctx, logger, distribution)
	}

	logger.Info("election distributed",
		"event", "party_payout_distributed",
		"election_id", distribution.ElectionID,
		"distribution_id", distribution.DistributionID,
		"tx_hash", distribution.TxHash,
		"candidates", len(distribution.Candidates),
		"total", distribution.Total.String(),
		"receipt_status", string(distribution.ReceiptStatus),
	)
	return distribution, nil
}

func (uc DistributeUseCase) saveProgress(ctx context.Context, logger *slog.Logger, distribution entities.Distribution) {
	if err := uc.Repository.UpdateDistribution(ctx, distribution); err != nil {
		logger.Error("distribution progress could not be recorded",
			"event", "party_payout_progress_record_failed",
			"election_id", distribution.ElectionID,
			"distribution_id", distribution.DistributionID,
			"status", string(distribution.Status),
			"tx_hash", distribution.TxHash,
			"error", err.Error(),
		)
	}
}

// deliverReceipt never fails the distribution: the payment is already final,
// so a sink error only leaves the receipt pending.
func (uc DistributeUseCase) deliverReceipt(
	ctx context.Context,
	logger *slog.Logger,
	distribution entities.Distribution,
) entities.Distribution {
	if uc.Receipts == nil {
		return distribution
	}
	updated, err := DeliverReceipt(ctx, uc.Receipts, uc.Repository, distribution, uc.now())
	if err != nil {
		logger.Warn("receipt delivery deferred",
			"event", "party_payout_receipt_deferred",
			"election_id", distribution.ElectionID,
			"distribution_id", distribution.DistributionID,
			"error", err.Error(),
		)
	}
	return updated
}

// DeliverReceipt sends one receipt and records the attempt. The returned
// distribution reflects the stored state even when delivery failed.
func DeliverReceipt(
	ctx context.Context,
	sink ports.ReceiptSink,
	repository ports.Repository,
	distribution entities.Distribution,
	now time.Time,
) (entities.Distribution, error) {
	sendErr := sink.PutReceipt(ctx, distribution.ElectionID, distribution.Receipt())
	distribution.ReceiptAttempts++
	distribution.UpdatedAt = now
	if sendErr == nil {
		distribution.ReceiptStatus = entities.ReceiptDelivered
		distribution.LastReceiptError = ""
	} else {
		distribution.LastReceiptError = sendErr.Error()
	}
	if err := repository.UpdateDistribution(ctx, distribution); err != nil {
		return distribution, errors.Join(sendErr, err)
	}
	return distribution, sendErr
}

func (uc DistributeUseCase) publishDistributed(ctx context.Context, logger *slog.Logger, distribution entities.Distribution) {
	if uc.Events == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(eventsv1.PayoutDistributed{
		ElectionID:     distribution.ElectionID,
		DistributionID: distribution.DistributionID,
		Account:        distribution.Account,
		Candidates:     distribution.Candidates,
		Amounts:        lo.Map(distribution.Amounts, func(amount *big.Int, _ int) string { return amount.String() }),
		TokenAddress:   distribution.TokenAddress,
		TxHash:         distribution.TxHash,
		OccurredAt:     distribution.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventsv1.EventPayoutDistributed,
		OccurredAt:       distribution.CreatedAt,
		SourceService:    "payout-service",
		TraceID:          eventID,
		SchemaVersion:    eventsv1.PartyEventsSchemaVersion,
		PartitionKeyPath: "election_id",
		PartitionKey:     distribution.ElectionID,
		Data:             payload,
	}
	if err := uc.Events.Publish(ctx, eventsv1.EventPayoutDistributed, envelope); err != nil {
		logger.Warn("payout event publish failed",
			"event", "party_payout_event_publish_failed",
			"election_id", distribution.ElectionID,
			"error", err.Error(),
		)
	}
}

func (uc DistributeUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
