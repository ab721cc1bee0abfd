package workers

import (
	"context"
	"log/slog"
	"time"

	application "payparty/contexts/party/payout-service/application"
	"payparty/contexts/party/payout-service/application/commands"
	"payparty/contexts/party/payout-service/ports"
)

// ReceiptRetrier re-sends receipts the receipt API did not accept at
// distribution time.
type ReceiptRetrier struct {
	Repository  ports.Repository
	Receipts    ports.ReceiptSink
	Clock       ports.Clock
	BatchSize   int
	MaxAttempts int
	Logger      *slog.Logger
}

// RunOnce attempts one batch and returns how many receipts were delivered.
// Unlike the outbox relay it keeps going after a failure, since receipts for
// different elections are independent.
func (r ReceiptRetrier) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger, "worker")
	limit := r.BatchSize
	if limit <= 0 {
		limit = 50
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	pending, err := r.Repository.ListPendingReceipts(ctx, limit, maxAttempts)
	if err != nil {
		logger.Error("pending receipt list failed",
			"event", "party_receipt_list_failed",
			"error", err.Error(),
		)
		return 0, err
	}

	delivered := 0
	for _, distribution := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		updated, err := commands.DeliverReceipt(ctx, r.Receipts, r.Repository, distribution, r.now())
		if err != nil {
			logger.Warn("receipt retry failed",
				"event", "party_receipt_retry_failed",
				"election_id", distribution.ElectionID,
				"distribution_id", distribution.DistributionID,
				"attempts", updated.ReceiptAttempts,
				"error", err.Error(),
			)
			if updated.ReceiptAttempts >= maxAttempts {
				logger.Error("receipt retries exhausted",
					"event", "party_receipt_retries_exhausted",
					"election_id", distribution.ElectionID,
					"distribution_id", distribution.DistributionID,
				)
			}
			continue
		}
		delivered++
	}

	if len(pending) > 0 {
		logger.Info("receipt retry cycle completed",
			"event", "party_receipt_retry_completed",
			"pending_count", len(pending),
			"delivered_count", delivered,
		)
	}
	return delivered, nil
}

func (r ReceiptRetrier) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
