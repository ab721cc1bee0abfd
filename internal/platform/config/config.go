package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DocumentStoreMemory   = "memory"
	DocumentStorePostgres = "postgres"
	DocumentStoreNATS     = "nats"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"payparty"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	DocumentStore string `env:"DOCUMENT_STORE" envDefault:"memory"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	NATSURL       string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSStream    string `env:"NATS_STREAM" envDefault:"PARTY_EVENTS"`

	EthereumRPCURL       string `env:"ETHEREUM_RPC_URL"`
	DiplomatContract     string `env:"DIPLOMAT_CONTRACT"`
	SignerPrivateKey     string `env:"SIGNER_PRIVATE_KEY"`
	ChainID              int64  `env:"CHAIN_ID" envDefault:"0"`
	EnableChainAnchoring bool   `env:"ENABLE_CHAIN_ANCHORING" envDefault:"false"`

	ReceiptAPIURL      string        `env:"RECEIPT_API_URL"`
	ReceiptMaxAttempts int           `env:"RECEIPT_MAX_ATTEMPTS" envDefault:"10"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"168h"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// ChainEnabled reports whether enough is configured to talk to the Diplomat
// contract.
func (c Config) ChainEnabled() bool {
	return c.EthereumRPCURL != "" && c.DiplomatContract != "" && c.SignerPrivateKey != ""
}

// Load reads an optional .env file and then the process environment. Values
// already present in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.DocumentStore = strings.ToLower(strings.TrimSpace(cfg.DocumentStore))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DocumentStore {
	case DocumentStoreMemory, DocumentStoreNATS:
	case DocumentStorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required when DOCUMENT_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown DOCUMENT_STORE %q", c.DocumentStore)
	}
	if c.EnableChainAnchoring && !c.ChainEnabled() {
		return errors.New("ENABLE_CHAIN_ANCHORING needs ETHEREUM_RPC_URL, DIPLOMAT_CONTRACT and SIGNER_PRIVATE_KEY")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
