package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Config struct {
	RPCURL           string
	DiplomatContract string
	SignerPrivateKey string
	// ChainID is discovered from the node when zero.
	ChainID int64
}

// Client is a connected RPC backend plus the process signer. Transactions
// from one process go through a single signer, so nonce handling is
// serialized by Transactor.
type Client struct {
	Backend  *ethclient.Client
	Diplomat common.Address
	From     common.Address
	ChainID  *big.Int

	key *ecdsa.PrivateKey
	mu  sync.Mutex
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, errors.New("ethereum rpc url is required")
	}
	if !common.IsHexAddress(cfg.DiplomatContract) {
		return nil, fmt.Errorf("diplomat contract %q is not a hex address", cfg.DiplomatContract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.SignerPrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer private key: %w", err)
	}

	backend, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = backend.ChainID(ctx)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("resolve chain id: %w", err)
		}
	}

	return &Client{
		Backend:  backend,
		Diplomat: common.HexToAddress(cfg.DiplomatContract),
		From:     crypto.PubkeyToAddress(key.PublicKey),
		ChainID:  chainID,
		key:      key,
	}, nil
}

// Transactor returns fresh signing options bound to ctx. Callers must hold
// the returned release func until the transaction is submitted.
func (c *Client) Transactor(ctx context.Context) (*bind.TransactOpts, func(), error) {
	c.mu.Lock()
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.ChainID)
	if err != nil {
		c.mu.Unlock()
		return nil, func() {}, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, c.mu.Unlock, nil
}

func (c *Client) Close() {
	if c != nil && c.Backend != nil {
		c.Backend.Close()
	}
}
