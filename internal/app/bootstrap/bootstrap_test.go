package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	electionhttp "payparty/contexts/party/election-service/transport/http"
	eventsv1 "payparty/contracts/gen/events/v1"
	"payparty/internal/platform/config"
	"payparty/internal/platform/messaging"
)

func memoryConfig() config.Config {
	return config.Config{
		ServiceName:        "payparty",
		HTTPPort:           "0",
		DocumentStore:      config.DocumentStoreMemory,
		IdempotencyTTL:     time.Hour,
		WorkerPollInterval: 10 * time.Millisecond,
		OutboxBatchSize:    10,
		ReceiptMaxAttempts: 3,
	}
}

func TestBuildMemoryRuntimeRelaysEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := memoryConfig()
	rt, err := build(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	bus, ok := rt.publisher.(*messaging.Bus)
	if !ok {
		t.Fatalf("expected in-process bus, got %T", rt.publisher)
	}
	received := make(chan eventsv1.Envelope, 4)
	if err := bus.Subscribe(ctx, eventsv1.EventElectionCreated, "bootstrap-test", func(_ context.Context, event eventsv1.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	created, err := rt.elections.Handler.CreateElectionHandler(ctx, "0x00000000000000000000000000000000000000c0", "boot-1",
		electionhttp.CreateElectionRequest{
			Name:       "bootstrap",
			Candidates: []string{"0x00000000000000000000000000000000000000a1"},
			Voters:     []string{"0x0000000000000000000000000000000000000101"},
			Kind:       "linear",
			FundAmount: "10",
		})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}

	loop := newWorkerLoop(cfg, rt, slog.Default())
	if loop.outboxRelay == nil {
		t.Fatalf("expected outbox relay for memory store")
	}
	loop.runCycle(ctx)

	select {
	case event := <-received:
		if event.PartitionKey != created.ElectionID {
			t.Fatalf("expected event for %s, got %s", created.ElectionID, event.PartitionKey)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected election created event on the bus")
	}

	pending, err := rt.outbox.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d rows", len(pending))
	}
}

func TestBuildWiresPayoutsThroughElections(t *testing.T) {
	ctx := context.Background()
	rt, err := build(ctx, memoryConfig(), slog.Default())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	creator := "0x00000000000000000000000000000000000000c0"
	voter := "0x0000000000000000000000000000000000000101"
	created, err := rt.elections.Handler.CreateElectionHandler(ctx, creator, "boot-2", electionhttp.CreateElectionRequest{
		Name:       "payouts",
		Candidates: []string{"0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000b2"},
		Voters:     []string{voter},
		Kind:       "linear",
		FundAmount: "90",
	})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}
	if _, err := rt.elections.Handler.CastBallotHandler(ctx, created.ElectionID, voter, electionhttp.CastBallotRequest{
		VoteAttribution: []electionhttp.VoteAttribution{
			{Candidate: "0x00000000000000000000000000000000000000a1", Score: 1},
			{Candidate: "0x00000000000000000000000000000000000000b2", Score: 2},
		},
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	if _, err := rt.elections.Handler.CloseElectionHandler(ctx, created.ElectionID, creator); err != nil {
		t.Fatalf("close election: %v", err)
	}

	distribution, err := rt.payouts.Handler.DistributeHandler(ctx, created.ElectionID, creator)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if distribution.Total != "90" || distribution.Amounts[0] != "30" || distribution.Amounts[1] != "60" {
		t.Fatalf("unexpected distribution %+v", distribution)
	}

	state, err := rt.elections.Handler.GetElectionHandler(ctx, created.ElectionID)
	if err != nil {
		t.Fatalf("get election: %v", err)
	}
	if !state.Election.IsPaid || state.Election.PaidTxHash != distribution.TxHash {
		t.Fatalf("expected election paid with %s, got %+v", distribution.TxHash, state.Election)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger := NewLogger(config.Config{LogLevel: "chatty", LogFormat: "text"})
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("expected info enabled")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug disabled")
	}

	debug := NewLogger(config.Config{LogLevel: "debug"})
	if !debug.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug enabled")
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":7070": ":7070",
	}
	for input, expected := range cases {
		if got := normalizeAddr(input); got != expected {
			t.Fatalf("normalizeAddr(%q) = %q, expected %q", input, got, expected)
		}
	}
}
