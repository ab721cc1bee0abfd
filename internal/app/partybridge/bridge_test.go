package partybridge

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	electionservice "payparty/contexts/party/election-service"
	"payparty/contexts/party/election-service/domain/entities"
	electionerrors "payparty/contexts/party/election-service/domain/errors"
	payouterrors "payparty/contexts/party/payout-service/domain/errors"
)

func seededModule() electionservice.Module {
	return electionservice.NewInMemoryModule([]entities.Election{{
		ElectionID: "election-1",
		Creator:    "0xCreator",
		Strategy:   entities.StrategyLinear,
		Candidates: []string{"0xA", "0xB"},
		Voters:     []string{"0xV"},
		FundAmount: "900",
		IsActive:   false,
	}}, slog.Default())
}

func TestFinalPayoutCarriesLifecycleFlags(t *testing.T) {
	bridge := New(seededModule())
	plan, err := bridge.FinalPayout(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("final payout failed: %v", err)
	}
	if plan.Creator != "0xCreator" || plan.IsActive || plan.IsPaid {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if len(plan.Amounts) != 2 || plan.Amounts[0].Sign() != 0 {
		t.Fatalf("expected zero payout without ballots, got %v", plan.Amounts)
	}
}

func TestMissingElectionMatchesBothSides(t *testing.T) {
	bridge := New(seededModule())
	_, err := bridge.FinalPayout(context.Background(), "missing")
	if !errors.Is(err, payouterrors.ErrElectionNotFound) || !errors.Is(err, electionerrors.ErrElectionNotFound) {
		t.Fatalf("expected not found on both sides, got %v", err)
	}
}

func TestMarkPaidTwiceIsAlreadyPaid(t *testing.T) {
	bridge := New(seededModule())
	ctx := context.Background()
	if err := bridge.MarkPaid(ctx, "election-1", "0xcreator", "0xtx"); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := bridge.MarkPaid(ctx, "election-1", "0xcreator", "0xtx2"); !errors.Is(err, payouterrors.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
	if err := bridge.MarkPaid(ctx, "election-1", "0xsomeone", "0xtx3"); !errors.Is(err, payouterrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
