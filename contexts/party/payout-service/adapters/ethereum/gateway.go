package ethereumadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"
	domainerrors "payparty/contexts/party/payout-service/domain/errors"
	"payparty/contexts/party/payout-service/ports"
	platformethereum "payparty/internal/platform/ethereum"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer hands out transaction options; release must be called once the
// transaction has been submitted.
type Signer interface {
	Transactor(ctx context.Context) (opts *bind.TransactOpts, release func(), err error)
}

// Gateway pays elections through the Diplomat contract. ERC-20 payouts are
// pulled by the contract, so the signer first approves the Diplomat for the
// payout total when the current allowance is short.
type Gateway struct {
	diplomat        *bind.BoundContract
	diplomatAddress common.Address
	backend         platformethereum.Backend
	signer          Signer
	from            common.Address
	bindToken       func(common.Address) (*bind.BoundContract, error)
	mineTimeout     time.Duration
	pollInterval    time.Duration
	logger          *slog.Logger
}

func NewGateway(client *platformethereum.Client, logger *slog.Logger) (*Gateway, error) {
	diplomat, err := platformethereum.BindDiplomat(client.Diplomat, client.Backend)
	if err != nil {
		return nil, err
	}
	gateway := newGateway(diplomat, client.Diplomat, client.Backend, client, client.From, logger)
	gateway.bindToken = func(address common.Address) (*bind.BoundContract, error) {
		return platformethereum.BindERC20(address, client.Backend)
	}
	return gateway, nil
}

func newGateway(
	diplomat *bind.BoundContract,
	diplomatAddress common.Address,
	backend platformethereum.Backend,
	signer Signer,
	from common.Address,
	logger *slog.Logger,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		diplomat:        diplomat,
		diplomatAddress: diplomatAddress,
		backend:         backend,
		signer:          signer,
		from:            from,
		mineTimeout:     3 * time.Minute,
		pollInterval:    time.Second,
		logger:          logger.With("module", "party/payout-service", "layer", "adapter"),
	}
}

func (g *Gateway) PayElection(ctx context.Context, req ports.PayElectionRequest) (entities.TransactionReceipt, error) {
	candidates, err := toAddresses(req.Candidates)
	if err != nil {
		return entities.TransactionReceipt{}, err
	}
	if len(candidates) != len(req.Amounts) {
		return entities.TransactionReceipt{}, fmt.Errorf("payElection: %d candidates for %d amounts", len(candidates), len(req.Amounts))
	}
	total := entities.SumAmounts(req.Amounts)
	token := platformethereum.TokenAddress(req.TokenAddress)

	if token != platformethereum.NativeToken {
		if err := g.ensureAllowance(ctx, token, total); err != nil {
			return entities.TransactionReceipt{}, err
		}
	}

	opts, release, err := g.signer.Transactor(ctx)
	if err != nil {
		return entities.TransactionReceipt{}, err
	}
	if token == platformethereum.NativeToken {
		opts.Value = total
	}
	tx, err := g.diplomat.Transact(opts, "payElection", strings.TrimSpace(req.ElectionID), candidates, req.Amounts, token)
	release()
	if err != nil {
		g.logger.Error("diplomat payElection submit failed",
			"event", "party_payout_submit_failed",
			"election_id", req.ElectionID,
			"error", err.Error(),
		)
		return entities.TransactionReceipt{}, fmt.Errorf("submit payElection: %w", err)
	}
	g.logger.Info("diplomat payElection submitted",
		"event", "party_payout_submitted",
		"election_id", req.ElectionID,
		"tx_hash", tx.Hash().Hex(),
		"token", token.Hex(),
		"total", total.String(),
	)

	return g.confirm(ctx, tx.Hash())
}

// confirm waits for a broadcast payElection. Once the transaction is out, a
// failed wait is reported as unconfirmed with the hash so the caller can settle
// it later instead of paying again.
func (g *Gateway) confirm(ctx context.Context, hash common.Hash) (entities.TransactionReceipt, error) {
	receipt, err := g.waitReceipt(ctx, hash)
	if err != nil {
		g.logger.Warn("diplomat payElection not mined",
			"event", "party_payout_unconfirmed",
			"tx_hash", hash.Hex(),
			"error", err.Error(),
		)
		return entities.TransactionReceipt{TxHash: hash.Hex()}, fmt.Errorf("%w: %w", domainerrors.ErrPaymentUnconfirmed, err)
	}
	return toTransactionReceipt(hash, receipt), nil
}

// TransactionStatus looks a submitted payment up once, without waiting.
func (g *Gateway) TransactionStatus(ctx context.Context, txHash string) (entities.TransactionReceipt, error) {
	txHash = strings.TrimSpace(txHash)
	if len(common.FromHex(txHash)) != common.HashLength {
		return entities.TransactionReceipt{}, fmt.Errorf("transaction status: %q is not a transaction hash", txHash)
	}
	hash := common.HexToHash(txHash)
	receipt, err := g.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return entities.TransactionReceipt{TxHash: hash.Hex()}, domainerrors.ErrPaymentUnconfirmed
		}
		return entities.TransactionReceipt{}, fmt.Errorf("transaction status %s: %w", hash.Hex(), err)
	}
	return toTransactionReceipt(hash, receipt), nil
}

func toTransactionReceipt(hash common.Hash, receipt *types.Receipt) entities.TransactionReceipt {
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	return entities.TransactionReceipt{
		TxHash:      hash.Hex(),
		BlockNumber: block,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
	}
}

func (g *Gateway) ensureAllowance(ctx context.Context, tokenAddress common.Address, total *big.Int) error {
	if g.bindToken == nil {
		return errors.New("erc20 binding is not configured")
	}
	token, err := g.bindToken(tokenAddress)
	if err != nil {
		return err
	}

	var out []interface{}
	if err := token.Call(&bind.CallOpts{Context: ctx, From: g.from}, &out, "allowance", g.from, g.diplomatAddress); err != nil {
		return fmt.Errorf("read allowance on %s: %w", tokenAddress.Hex(), err)
	}
	if len(out) == 0 {
		return fmt.Errorf("read allowance on %s: empty result", tokenAddress.Hex())
	}
	allowance := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if allowance.Cmp(total) >= 0 {
		return nil
	}

	opts, release, err := g.signer.Transactor(ctx)
	if err != nil {
		return err
	}
	tx, err := token.Transact(opts, "approve", g.diplomatAddress, total)
	release()
	if err != nil {
		return fmt.Errorf("submit approve on %s: %w", tokenAddress.Hex(), err)
	}
	receipt, err := g.waitReceipt(ctx, tx.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approve reverted in tx %s", tx.Hash().Hex())
	}
	g.logger.Info("erc20 allowance approved",
		"event", "party_payout_allowance_approved",
		"token", tokenAddress.Hex(),
		"spender", g.diplomatAddress.Hex(),
		"amount", total.String(),
		"tx_hash", tx.Hash().Hex(),
	)
	return nil
}

// waitReceipt polls for the receipt with exponential backoff until it is
// mined or mineTimeout elapses. Only ethereum.NotFound is retried.
func (g *Gateway) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	backoffConfig := backoff.NewExponentialBackOff()
	backoffConfig.InitialInterval = g.pollInterval
	backoffConfig.Multiplier = 1.5
	backoffConfig.MaxInterval = 15 * time.Second
	backoffConfig.MaxElapsedTime = g.mineTimeout

	operation := func() (*types.Receipt, error) {
		receipt, err := g.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	receipt, err := backoff.RetryWithData(operation, backoff.WithContext(backoffConfig, ctx))
	if err != nil {
		return nil, fmt.Errorf("wait for tx %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

func toAddresses(values []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("payElection: %q is not an address", value)
		}
		addresses = append(addresses, common.HexToAddress(value))
	}
	return addresses, nil
}

var _ ports.PaymentGateway = (*Gateway)(nil)
