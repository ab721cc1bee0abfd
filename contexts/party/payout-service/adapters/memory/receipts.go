package memory

import (
	"context"
	"sync"

	"payparty/contexts/party/payout-service/domain/entities"
	"payparty/contexts/party/payout-service/ports"
)

type RecordedReceipt struct {
	ElectionID string
	Receipt    entities.Receipt
}

// ReceiptLog is an in-process receipt sink. FailNext makes the next n
// deliveries fail.
type ReceiptLog struct {
	mu       sync.Mutex
	receipts []RecordedReceipt
	failures int
	Err      error
}

func NewReceiptLog() *ReceiptLog {
	return &ReceiptLog{}
}

func (l *ReceiptLog) FailNext(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = n
	l.Err = err
}

func (l *ReceiptLog) PutReceipt(_ context.Context, electionID string, receipt entities.Receipt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures > 0 {
		l.failures--
		return l.Err
	}
	l.receipts = append(l.receipts, RecordedReceipt{ElectionID: electionID, Receipt: receipt})
	return nil
}

func (l *ReceiptLog) Receipts() []RecordedReceipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RecordedReceipt(nil), l.receipts...)
}

var _ ports.ReceiptSink = (*ReceiptLog)(nil)
