package workers

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"payparty/contexts/party/payout-service/adapters/memory"
	"payparty/contexts/party/payout-service/domain/entities"
)

func seedPending(t *testing.T, store *memory.Store, id string, attempts int, offset time.Duration) {
	t.Helper()
	err := store.CreateDistribution(context.Background(), entities.Distribution{
		DistributionID:  id,
		ElectionID:      "election-" + id,
		Account:         "0xCreator",
		Amounts:         []*big.Int{big.NewInt(10)},
		Total:           big.NewInt(10),
		TxHash:          "0x" + id,
		Status:          entities.DistributionConfirmed,
		ReceiptStatus:   entities.ReceiptPending,
		ReceiptAttempts: attempts,
		CreatedAt:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Add(offset),
	})
	if err != nil {
		t.Fatalf("seed distribution failed: %v", err)
	}
}

func TestReceiptRetrierSkipsExhaustedRows(t *testing.T) {
	store := memory.NewStore()
	seedPending(t, store, "d1", 0, 0)
	seedPending(t, store, "d2", 3, time.Minute)
	receipts := memory.NewReceiptLog()

	retrier := ReceiptRetrier{Repository: store, Receipts: receipts, Clock: store, MaxAttempts: 3}
	delivered, err := retrier.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected only the row under the attempt cap, got %d", delivered)
	}
	if got := receipts.Receipts(); len(got) != 1 || got[0].ElectionID != "election-d1" {
		t.Fatalf("unexpected receipts %+v", got)
	}
}

func TestReceiptRetrierContinuesPastFailures(t *testing.T) {
	store := memory.NewStore()
	seedPending(t, store, "d1", 0, 0)
	seedPending(t, store, "d2", 0, time.Minute)
	receipts := memory.NewReceiptLog()
	receipts.FailNext(1, errors.New("receipt api down"))

	retrier := ReceiptRetrier{Repository: store, Receipts: receipts, Clock: store}
	delivered, err := retrier.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected second receipt delivered, got %d", delivered)
	}
	failed, err := store.GetDistribution(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get distribution failed: %v", err)
	}
	if failed.ReceiptAttempts != 1 || failed.LastReceiptError == "" || failed.ReceiptStatus != entities.ReceiptPending {
		t.Fatalf("expected failed attempt recorded, got %+v", failed)
	}
}

func TestReceiptRetrierBatchSize(t *testing.T) {
	store := memory.NewStore()
	for i, id := range []string{"d1", "d2", "d3"} {
		seedPending(t, store, id, 0, time.Duration(i)*time.Minute)
	}
	retrier := ReceiptRetrier{Repository: store, Receipts: memory.NewReceiptLog(), Clock: store, BatchSize: 2}
	delivered, err := retrier.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("expected batch of 2, got %d", delivered)
	}
	pending, _ := store.ListPendingReceipts(context.Background(), 10, 10)
	if len(pending) != 1 || pending[0].DistributionID != "d3" {
		t.Fatalf("expected d3 left pending, got %+v", pending)
	}
}
