package payoutservice

import (
	"log/slog"

	httpadapter "payparty/contexts/party/payout-service/adapters/http"
	"payparty/contexts/party/payout-service/adapters/memory"
	"payparty/contexts/party/payout-service/application/commands"
	"payparty/contexts/party/payout-service/application/queries"
	"payparty/contexts/party/payout-service/application/workers"
	"payparty/contexts/party/payout-service/ports"
)

type Module struct {
	Handler        httpadapter.Handler
	ReceiptRetrier workers.ReceiptRetrier
	Store          *memory.Store
	Gateway        *memory.Gateway
	Receipts       *memory.ReceiptLog
}

type Dependencies struct {
	Elections          ports.Elections
	Gateway            ports.PaymentGateway
	Receipts           ports.ReceiptSink
	Repository         ports.Repository
	Events             ports.EventPublisher
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	ReceiptBatchSize   int
	ReceiptMaxAttempts int
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	distribute := commands.DistributeUseCase{
		Elections:  deps.Elections,
		Gateway:    deps.Gateway,
		Receipts:   deps.Receipts,
		Repository: deps.Repository,
		Events:     deps.Events,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Distributions: distribute,
			Queries:       queries.DistributionQueryUseCase{Repository: deps.Repository},
			Logger:        deps.Logger,
		},
		ReceiptRetrier: workers.ReceiptRetrier{
			Repository:  deps.Repository,
			Receipts:    deps.Receipts,
			Clock:       deps.Clock,
			BatchSize:   deps.ReceiptBatchSize,
			MaxAttempts: deps.ReceiptMaxAttempts,
			Logger:      deps.Logger,
		},
	}
}

// NewInMemoryModule wires the dry-run gateway and an in-process receipt log,
// so distributions never touch a chain or the receipt API.
func NewInMemoryModule(elections ports.Elections, logger *slog.Logger) Module {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	receipts := memory.NewReceiptLog()
	module := NewModule(Dependencies{
		Elections:          elections,
		Gateway:            gateway,
		Receipts:           receipts,
		Repository:         store,
		Clock:              store,
		IDGen:              store,
		ReceiptMaxAttempts: 5,
		Logger:             logger,
	})
	module.Store = store
	module.Gateway = gateway
	module.Receipts = receipts
	return module
}
