package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"payparty/contexts/party/payout-service/domain/entities"
	domainerrors "payparty/contexts/party/payout-service/domain/errors"
	"payparty/contexts/party/payout-service/ports"
)

// Gateway is a dry-run payment gateway. It records every request and answers
// with a deterministic transaction hash derived from the election id and the
// call sequence. While Pending is set, payments are broadcast but never mined.
type Gateway struct {
	mu       sync.Mutex
	requests []ports.PayElectionRequest
	issued   map[string]entities.TransactionReceipt
	Revert   bool
	Pending  bool
	Err      error
}

func NewGateway() *Gateway {
	return &Gateway{issued: make(map[string]entities.TransactionReceipt)}
}

func (g *Gateway) PayElection(_ context.Context, req ports.PayElectionRequest) (entities.TransactionReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return entities.TransactionReceipt{}, g.Err
	}
	g.requests = append(g.requests, ports.PayElectionRequest{
		ElectionID:   req.ElectionID,
		Candidates:   append([]string(nil), req.Candidates...),
		Amounts:      entities.CloneAmounts(req.Amounts),
		TokenAddress: req.TokenAddress,
	})
	sequence := len(g.requests)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", req.ElectionID, sequence)))
	receipt := entities.TransactionReceipt{
		TxHash:      "0x" + hex.EncodeToString(sum[:]),
		BlockNumber: uint64(sequence),
		Success:     !g.Revert,
	}
	if g.issued == nil {
		g.issued = make(map[string]entities.TransactionReceipt)
	}
	g.issued[receipt.TxHash] = receipt
	if g.Pending {
		return entities.TransactionReceipt{TxHash: receipt.TxHash}, domainerrors.ErrPaymentUnconfirmed
	}
	return receipt, nil
}

func (g *Gateway) TransactionStatus(_ context.Context, txHash string) (entities.TransactionReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	receipt, ok := g.issued[txHash]
	if !ok || g.Pending {
		return entities.TransactionReceipt{TxHash: txHash}, domainerrors.ErrPaymentUnconfirmed
	}
	return receipt, nil
}

func (g *Gateway) Requests() []ports.PayElectionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ports.PayElectionRequest(nil), g.requests...)
}

var _ ports.PaymentGateway = (*Gateway)(nil)
