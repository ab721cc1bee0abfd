package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/ports"
)

func seedElection() entities.Election {
	return entities.Election{
		ElectionID: "election-1",
		Creator:    "0xCreator",
		Candidates: []string{"0xA", "0xB"},
		Voters:     []string{"0xV"},
		FundAmount: "10",
		IsActive:   true,
	}
}

func TestCreateBallotRejectsSecondBallotIgnoringCase(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	ctx := context.Background()

	first := entities.Ballot{BallotID: "b1", ElectionID: "election-1", Voter: "0xVoter"}
	if err := store.CreateBallot(ctx, first); err != nil {
		t.Fatalf("expected first ballot stored, got %v", err)
	}
	second := entities.Ballot{BallotID: "b2", ElectionID: "election-1", Voter: " 0xVOTER "}
	if err := store.CreateBallot(ctx, second); !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot, got %v", err)
	}

	ballots, err := store.LoadBallots(ctx, "election-1")
	if err != nil {
		t.Fatalf("load ballots failed: %v", err)
	}
	if len(ballots) != 1 || ballots[0].BallotID != "b1" {
		t.Fatalf("expected only the first ballot, got %+v", ballots)
	}
}

func TestCreateBallotRequiresElection(t *testing.T) {
	store := NewStore(nil)
	err := store.CreateBallot(context.Background(), entities.Ballot{ElectionID: "missing", Voter: "0xV"})
	if !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
}

func TestLoadedDocumentsDoNotAliasStoredState(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	ctx := context.Background()

	loaded, err := store.LoadElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("load election failed: %v", err)
	}
	loaded.Candidates[0] = "0xMutated"

	again, err := store.LoadElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("reload election failed: %v", err)
	}
	if again.Candidates[0] != "0xA" {
		t.Fatalf("expected stored candidates unchanged, got %v", again.Candidates)
	}
}

func TestUpdateElectionAppliesPatch(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	inactive := false
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	updated, err := store.UpdateElection(context.Background(), "election-1", entities.ElectionPatch{
		IsActive:  &inactive,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("update election failed: %v", err)
	}
	if updated.IsActive || updated.IsPaid || !updated.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected patched election: %+v", updated)
	}
	if _, err := store.UpdateElection(context.Background(), "missing", entities.ElectionPatch{}); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIdempotencyRecordsExpire(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	record := ports.IdempotencyRecord{
		Key:         "idem-1",
		RequestHash: "hash-1",
		ElectionID:  "election-1",
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put(ctx, ports.IdempotencyRecord{Key: "idem-1", RequestHash: "hash-2"}); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected conflict for different hash, got %v", err)
	}
	if _, found, _ := store.Get(ctx, "idem-1", now); !found {
		t.Fatalf("expected live record")
	}
	if _, found, _ := store.Get(ctx, "idem-1", now.Add(2*time.Hour)); found {
		t.Fatalf("expected expired record to be dropped")
	}
}

func TestOutboxPendingAndPublished(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"evt-2", "evt-1"} {
		if err := store.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:    id,
			EventType:  "party.ballot.cast",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("append outbox failed: %v", err)
		}
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected creation order, got %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-2", base); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if store.PendingOutboxCount() != 1 {
		t.Fatalf("expected one pending row, got %d", store.PendingOutboxCount())
	}
	if err := store.MarkOutboxPublished(ctx, "missing", base); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for unknown row, got %v", err)
	}
}

func TestCreateBallotRefusesClosedElection(t *testing.T) {
	store := NewStore([]entities.Election{seedElection()})
	ctx := context.Background()
	inactive := false
	if _, err := store.UpdateElection(ctx, "election-1", entities.ElectionPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ballot := entities.Ballot{BallotID: "b1", ElectionID: "election-1", Voter: "0xV"}
	if err := store.CreateBallot(ctx, ballot); !errors.Is(err, domainerrors.ErrElectionClosed) {
		t.Fatalf("expected election closed, got %v", err)
	}
	ballots, err := store.LoadBallots(ctx, "election-1")
	if err != nil {
		t.Fatalf("load ballots failed: %v", err)
	}
	if len(ballots) != 0 {
		t.Fatalf("expected no ballots, got %d", len(ballots))
	}

	// The refused voter is not recorded as having voted.
	active := true
	if _, err := store.UpdateElection(ctx, "election-1", entities.ElectionPatch{IsActive: &active}); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := store.CreateBallot(ctx, ballot); err != nil {
		t.Fatalf("expected ballot accepted once active, got %v", err)
	}
}
