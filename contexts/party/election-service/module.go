package electionservice

import (
	"log/slog"
	"time"

	httpadapter "payparty/contexts/party/election-service/adapters/http"
	"payparty/contexts/party/election-service/adapters/memory"
	"payparty/contexts/party/election-service/application/commands"
	"payparty/contexts/party/election-service/application/queries"
	"payparty/contexts/party/election-service/domain/entities"
	"payparty/contexts/party/election-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Documents      ports.DocumentStore
	Idempotency    ports.IdempotencyStore
	Anchor         ports.ElectionAnchor
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	electionUseCase := commands.ElectionUseCase{
		Documents:      deps.Documents,
		Idempotency:    deps.Idempotency,
		Anchor:         deps.Anchor,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	ballotUseCase := commands.BallotUseCase{
		Documents: deps.Documents,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	tallyUseCase := queries.TallyUseCase{
		Documents: deps.Documents,
	}
	return Module{
		Handler: httpadapter.Handler{
			Elections: electionUseCase,
			Ballots:   ballotUseCase,
			Tallies:   tallyUseCase,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Election, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Documents:      store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
