package ethereumadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"payparty/contexts/party/election-service/ports"
	platformethereum "payparty/internal/platform/ethereum"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer hands out transaction options. release must be called once the
// transaction has been submitted.
type Signer interface {
	Transactor(ctx context.Context) (opts *bind.TransactOpts, release func(), err error)
}

// Anchor registers election ids with the Diplomat contract.
type Anchor struct {
	contract    *bind.BoundContract
	backend     platformethereum.Backend
	signer      Signer
	mineTimeout time.Duration
	logger      *slog.Logger
}

func NewAnchor(client *platformethereum.Client, logger *slog.Logger) (*Anchor, error) {
	contract, err := platformethereum.BindDiplomat(client.Diplomat, client.Backend)
	if err != nil {
		return nil, err
	}
	return newAnchor(contract, client.Backend, client, logger), nil
}

func newAnchor(contract *bind.BoundContract, backend platformethereum.Backend, signer Signer, logger *slog.Logger) *Anchor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Anchor{
		contract:    contract,
		backend:     backend,
		signer:      signer,
		mineTimeout: 2 * time.Minute,
		logger:      logger,
	}
}

func (a *Anchor) AnchorElection(ctx context.Context, electionID string) (string, error) {
	electionID = strings.TrimSpace(electionID)
	opts, release, err := a.signer.Transactor(ctx)
	if err != nil {
		return "", err
	}
	tx, err := a.contract.Transact(opts, "createElection", electionID)
	release()
	if err != nil {
		a.logger.Error("diplomat createElection submit failed",
			"event", "party_anchor_submit_failed",
			"module", "party/election-service",
			"layer", "adapter",
			"election_id", electionID,
			"error", err.Error(),
		)
		return "", fmt.Errorf("submit createElection: %w", err)
	}

	receipt, err := a.waitMined(ctx, tx)
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("createElection reverted in tx %s", tx.Hash().Hex())
	}

	a.logger.Info("election anchored on chain",
		"event", "party_election_anchored",
		"module", "party/election-service",
		"layer", "adapter",
		"election_id", electionID,
		"tx_hash", tx.Hash().Hex(),
		"block_number", receipt.BlockNumber.Uint64(),
	)
	return tx.Hash().Hex(), nil
}

func (a *Anchor) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, a.mineTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, a.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("createElection tx %s not mined within %s: %w", tx.Hash().Hex(), a.mineTimeout, err)
		}
		return nil, fmt.Errorf("wait for createElection tx %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

var _ ports.ElectionAnchor = (*Anchor)(nil)
