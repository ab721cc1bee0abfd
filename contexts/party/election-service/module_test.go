package electionservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	electionservice "payparty/contexts/party/election-service"
	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	httptransport "payparty/contexts/party/election-service/transport/http"
)

const (
	creator = "0xC0FFEE0000000000000000000000000000000001"
	alice   = "0xA11CE00000000000000000000000000000000002"
	bob     = "0xB0B0000000000000000000000000000000000003"
	carol   = "0xCA401000000000000000000000000000000000004"
)

func newElectionRequest() httptransport.CreateElectionRequest {
	return httptransport.CreateElectionRequest{
		Name:       "Q1 contributor pool",
		Candidates: []string{alice, bob},
		Voters:     []string{alice, bob, carol},
		Kind:       "linear",
		FundAmount: "1000",
	}
}

func TestCreateElectionReplaysByIdempotencyKey(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	first, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-create-1", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if !first.IsActive || first.IsPaid {
		t.Fatalf("expected active unpaid election, got active=%v paid=%v", first.IsActive, first.IsPaid)
	}
	if first.Kind != "linear" {
		t.Fatalf("expected linear kind, got %s", first.Kind)
	}

	second, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-create-1", newElectionRequest())
	if err != nil {
		t.Fatalf("replay create election failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed election")
	}
	if first.ElectionID != second.ElectionID {
		t.Fatalf("expected same election id, got %s and %s", first.ElectionID, second.ElectionID)
	}

	changed := newElectionRequest()
	changed.FundAmount = "2000"
	_, err = module.Handler.CreateElectionHandler(ctx, creator, "idem-create-1", changed)
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestCreateElectionValidation(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	cases := map[string]func(*httptransport.CreateElectionRequest){
		"missing name":        func(r *httptransport.CreateElectionRequest) { r.Name = " " },
		"no candidates":       func(r *httptransport.CreateElectionRequest) { r.Candidates = nil },
		"no voters":           func(r *httptransport.CreateElectionRequest) { r.Voters = []string{" "} },
		"duplicate candidate": func(r *httptransport.CreateElectionRequest) { r.Candidates = []string{alice, " " + alice + " "} },
		"negative fund":       func(r *httptransport.CreateElectionRequest) { r.FundAmount = "-1" },
		"fractional fund":     func(r *httptransport.CreateElectionRequest) { r.FundAmount = "1.5" },
		"unknown kind":        func(r *httptransport.CreateElectionRequest) { r.Kind = "ranked" },
		"negative allocation": func(r *httptransport.CreateElectionRequest) { r.VoteAllocation = -1 },
	}
	for name, mutate := range cases {
		req := newElectionRequest()
		mutate(&req)
		if _, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-"+name, req); !errors.Is(err, domainerrors.ErrInvalidElectionInput) {
			t.Fatalf("%s: expected invalid election input, got %v", name, err)
		}
	}

	if _, err := module.Handler.CreateElectionHandler(ctx, creator, "", newElectionRequest()); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected idempotency key required, got %v", err)
	}
}

func TestCastBallotAcceptsThenRejectsDuplicateWithCurrentTally(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-cast", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	accepted, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, alice, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 1}, {Candidate: bob, Score: 3}},
	})
	if err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if accepted.Status != string(entities.BallotAccepted) || accepted.BallotID == "" {
		t.Fatalf("expected accepted ballot with id, got %+v", accepted)
	}
	if accepted.Tally.Payout[0] != "250" || accepted.Tally.Payout[1] != "750" {
		t.Fatalf("expected payout [250 750], got %v", accepted.Tally.Payout)
	}

	// Same voter, different casing and different scores.
	repeat, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, "0xa11ce00000000000000000000000000000000002", httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 9}, {Candidate: bob, Score: 0}},
	})
	if err != nil {
		t.Fatalf("duplicate cast must not error, got %v", err)
	}
	if repeat.Status != string(entities.BallotRejected) {
		t.Fatalf("expected rejected duplicate, got %s", repeat.Status)
	}
	if repeat.Tally.BallotCount != 1 || repeat.Tally.TotalScores[0] != 1 || repeat.Tally.TotalScores[1] != 3 {
		t.Fatalf("expected unchanged tally on duplicate, got %+v", repeat.Tally)
	}

	voted, err := module.Handler.HasVotedHandler(ctx, election.ElectionID, alice)
	if err != nil || !voted.HasVoted {
		t.Fatalf("expected alice to have voted, got %+v err=%v", voted, err)
	}
	voted, err = module.Handler.HasVotedHandler(ctx, election.ElectionID, carol)
	if err != nil || voted.HasVoted {
		t.Fatalf("expected carol not to have voted, got %+v err=%v", voted, err)
	}
}

func TestCastBallotHardFailures(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	req := newElectionRequest()
	req.VoteAllocation = 4
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-failures", req)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	cases := []struct {
		name  string
		voter string
		votes []httptransport.VoteAttribution
		want  error
	}{
		{"misaligned", alice, []httptransport.VoteAttribution{{Candidate: bob, Score: 1}, {Candidate: alice, Score: 1}}, domainerrors.ErrMalformedBallot},
		{"short", alice, []httptransport.VoteAttribution{{Candidate: alice, Score: 1}}, domainerrors.ErrMalformedBallot},
		{"negative", alice, []httptransport.VoteAttribution{{Candidate: alice, Score: -1}, {Candidate: bob, Score: 1}}, domainerrors.ErrInvalidBallotInput},
		{"over allocation", alice, []httptransport.VoteAttribution{{Candidate: alice, Score: 3}, {Candidate: bob, Score: 2}}, domainerrors.ErrBallotExceedsAllocation},
		{"ineligible", creator, []httptransport.VoteAttribution{{Candidate: alice, Score: 1}, {Candidate: bob, Score: 1}}, domainerrors.ErrVoterNotEligible},
	}
	for _, tc := range cases {
		_, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, tc.voter, httptransport.CastBallotRequest{VoteAttribution: tc.votes})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	state, err := module.Handler.GetElectionHandler(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if state.Tally.BallotCount != 0 {
		t.Fatalf("expected failed casts to persist nothing, got %d ballots", state.Tally.BallotCount)
	}
}

func TestQuadraticAllocationSpendsSquares(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	req := newElectionRequest()
	req.Kind = "quadratic"
	req.VoteAllocation = 10
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-qv", req)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	// 3^2 + 1^2 = 10 fits exactly.
	result, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, alice, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 3}, {Candidate: bob, Score: 1}},
	})
	if err != nil || result.Status != "accepted" {
		t.Fatalf("expected accepted quadratic ballot, got %+v err=%v", result, err)
	}
	_, err = module.Handler.CastBallotHandler(ctx, election.ElectionID, bob, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 3}, {Candidate: bob, Score: 2}},
	})
	if !errors.Is(err, domainerrors.ErrBallotExceedsAllocation) {
		t.Fatalf("expected allocation overspend, got %v", err)
	}
}

func TestCloseElectionIsCreatorOnlyAndIdempotent(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-close", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	if _, err := module.Handler.CloseElectionHandler(ctx, election.ElectionID, alice); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden close, got %v", err)
	}
	closed, err := module.Handler.CloseElectionHandler(ctx, election.ElectionID, "0xc0ffee0000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("close election failed: %v", err)
	}
	if closed.IsActive {
		t.Fatalf("expected inactive election after close")
	}
	again, err := module.Handler.CloseElectionHandler(ctx, election.ElectionID, creator)
	if err != nil || again.IsActive {
		t.Fatalf("expected idempotent close, got %+v err=%v", again, err)
	}

	_, err = module.Handler.CastBallotHandler(ctx, election.ElectionID, bob, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 1}, {Candidate: bob, Score: 1}},
	})
	if !errors.Is(err, domainerrors.ErrElectionClosed) {
		t.Fatalf("expected closed election, got %v", err)
	}
}

func TestMarkPaidOnlyOnce(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-paid", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	uc := module.Handler.Elections
	if _, err := uc.MarkPaid(ctx, markPaid(election.ElectionID, alice, "0xabc")); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden mark paid, got %v", err)
	}
	if _, err := uc.MarkPaid(ctx, markPaid(election.ElectionID, creator, " ")); !errors.Is(err, domainerrors.ErrInvalidElectionInput) {
		t.Fatalf("expected tx hash required, got %v", err)
	}
	paid, err := uc.MarkPaid(ctx, markPaid(election.ElectionID, creator, "0xabc"))
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if !paid.IsPaid || paid.PaidTxHash != "0xabc" {
		t.Fatalf("expected paid election with tx hash, got %+v", paid)
	}
	if _, err := uc.MarkPaid(ctx, markPaid(election.ElectionID, creator, "0xdef")); !errors.Is(err, domainerrors.ErrElectionAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
}

func TestListElectionsNewestFirst(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	module.Store.SetNow(func() time.Time { return base })
	older, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-old", newElectionRequest())
	if err != nil {
		t.Fatalf("create older election failed: %v", err)
	}
	module.Store.SetNow(func() time.Time { return base.Add(time.Hour) })
	newer, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-new", newElectionRequest())
	if err != nil {
		t.Fatalf("create newer election failed: %v", err)
	}

	list, err := module.Handler.ListElectionsHandler(ctx)
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 elections, got %d", len(list.Items))
	}
	if list.Items[0].ElectionID != newer.ElectionID || list.Items[1].ElectionID != older.ElectionID {
		t.Fatalf("expected newest first, got %s then %s", list.Items[0].ElectionID, list.Items[1].ElectionID)
	}
}

func TestElectionEventsReachOutbox(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-events", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if _, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, bob, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 2}, {Candidate: bob, Score: 0}},
	}); err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if _, err := module.Handler.CloseElectionHandler(ctx, election.ElectionID, creator); err != nil {
		t.Fatalf("close election failed: %v", err)
	}

	if got := module.Store.PendingOutboxCount(); got != 3 {
		t.Fatalf("expected created, cast, and closed events pending, got %d", got)
	}
}

func TestScoreAndPayoutQueriesFollowCandidateOrder(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	election, err := module.Handler.CreateElectionHandler(ctx, creator, "idem-queries", newElectionRequest())
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if _, err := module.Handler.CastBallotHandler(ctx, election.ElectionID, carol, httptransport.CastBallotRequest{
		VoteAttribution: []httptransport.VoteAttribution{{Candidate: alice, Score: 1}, {Candidate: bob, Score: 3}},
	}); err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}

	scores, err := module.Handler.CandidateScoresHandler(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("candidate scores failed: %v", err)
	}
	if len(scores.TotalScores) != 2 || scores.TotalScores[0] != 1 || scores.TotalScores[1] != 3 {
		t.Fatalf("unexpected scores %v", scores.TotalScores)
	}
	if scores.Candidates[0] != alice || scores.Candidates[1] != bob {
		t.Fatalf("expected candidate order preserved, got %v", scores.Candidates)
	}

	payout, err := module.Handler.FinalPayoutHandler(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("final payout failed: %v", err)
	}
	if payout.Payout[0] != "250" || payout.Payout[1] != "750" || payout.ScoreSum != 4 {
		t.Fatalf("unexpected payout %+v", payout)
	}

	if _, err := module.Handler.FinalPayoutHandler(ctx, "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
