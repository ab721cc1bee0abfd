package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "payparty/contexts/party/election-service/application"
	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/domain/tally"
	"payparty/contexts/party/election-service/ports"
	eventsv1 "payparty/contracts/gen/events/v1"
)

// CastBallotCommand carries the voter identity explicitly; there is no
// session state behind it.
type CastBallotCommand struct {
	ElectionID      string
	Voter           string
	VoteAttribution []entities.VoteAttribution
}

type BallotUseCase struct {
	Documents ports.DocumentStore
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CastBallot accepts at most one ballot per voter and election. A repeat
// submission is rejected softly: the result carries the current tally and no
// error. Malformed ballots are the only hard ballot failure.
func (uc BallotUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (entities.CastResult, error) {
	logger := application.ResolveLogger(uc.Logger, "application")
	voter := strings.TrimSpace(cmd.Voter)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if voter == "" || electionID == "" {
		return entities.CastResult{}, domainerrors.ErrInvalidBallotInput
	}

	election, err := uc.Documents.LoadElection(ctx, electionID)
	if err != nil {
		return entities.CastResult{}, err
	}
	existing, err := uc.Documents.LoadBallots(ctx, election.ElectionID)
	if err != nil {
		return entities.CastResult{}, err
	}
	current, err := tally.Tally(election, existing)
	if err != nil {
		logger.Error("ballot snapshot could not be tallied",
			"event", "party_ballot_snapshot_tally_failed",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return entities.CastResult{}, err
	}

	if tally.HasVoted(existing, election.ElectionID, voter) {
		logger.Info("duplicate ballot rejected",
			"event", "party_ballot_duplicate_rejected",
			"election_id", election.ElectionID,
			"voter", voter,
		)
		return entities.Rejected(current), nil
	}
	if !election.IsActive {
		return entities.CastResult{}, domainerrors.ErrElectionClosed
	}
	if !election.IsVoter(voter) {
		logger.Warn("ballot from ineligible voter",
			"event", "party_ballot_voter_not_eligible",
			"election_id", election.ElectionID,
			"voter", voter,
		)
		return entities.CastResult{}, domainerrors.ErrVoterNotEligible
	}

	now := uc.now()
	ballot := entities.Ballot{
		ElectionID:      election.ElectionID,
		Voter:           voter,
		VoteAttribution: trimAttribution(cmd.VoteAttribution),
		CreatedAt:       now,
	}
	if err := validateBallot(election, ballot); err != nil {
		logger.Warn("ballot validation failed",
			"event", "party_ballot_validation_failed",
			"election_id", election.ElectionID,
			"voter", voter,
			"error", err.Error(),
		)
		return entities.CastResult{}, err
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.CastResult{}, err
	}
	ballot.BallotID = ballotID
	if err := uc.Documents.CreateBallot(ctx, ballot); err != nil {
		if !errors.Is(err, domainerrors.ErrDuplicateBallot) {
			return entities.CastResult{}, err
		}
		// Lost a race with a concurrent submission from the same voter.
		return uc.rejectWithFreshTally(ctx, election)
	}

	next, err := tally.Tally(election, append(existing, ballot))
	if err != nil {
		return entities.CastResult{}, err
	}
	if err := appendElectionEvent(ctx, uc.Outbox, uc.IDGen, eventsv1.EventBallotCast, election.ElectionID, now,
		eventsv1.BallotCast{
			ElectionID:  election.ElectionID,
			BallotID:    ballot.BallotID,
			Voter:       ballot.Voter,
			TotalScores: next.TotalScores,
			OccurredAt:  now.Format(time.RFC3339),
		},
	); err != nil {
		return entities.CastResult{}, err
	}

	logger.Info("ballot accepted",
		"event", "party_ballot_accepted",
		"election_id", election.ElectionID,
		"ballot_id", ballot.BallotID,
		"voter", voter,
		"ballot_count", next.BallotCount,
	)
	return entities.Accepted(ballot, next), nil
}

func (uc BallotUseCase) rejectWithFreshTally(ctx context.Context, election entities.Election) (entities.CastResult, error) {
	ballots, err := uc.Documents.LoadBallots(ctx, election.ElectionID)
	if err != nil {
		return entities.CastResult{}, err
	}
	current, err := tally.Tally(election, ballots)
	if err != nil {
		return entities.CastResult{}, err
	}
	return entities.Rejected(current), nil
}

func (uc BallotUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func validateBallot(election entities.Election, ballot entities.Ballot) error {
	if err := tally.ValidateBallot(election.Candidates, ballot); err != nil {
		return err
	}
	for _, entry := range ballot.VoteAttribution {
		if entry.Score < 0 {
			return domainerrors.ErrInvalidBallotInput
		}
	}
	if election.VoteAllocation > 0 && tally.Spend(election.Strategy, ballot.VoteAttribution) > float64(election.VoteAllocation) {
		return domainerrors.ErrBallotExceedsAllocation
	}
	return nil
}

func trimAttribution(values []entities.VoteAttribution) []entities.VoteAttribution {
	items := make([]entities.VoteAttribution, 0, len(values))
	for _, value := range values {
		items = append(items, entities.VoteAttribution{
			Candidate: strings.TrimSpace(value.Candidate),
			Score:     value.Score,
		})
	}
	return items
}
