package queries

import (
	"context"
	"sort"
	"strings"

	"payparty/contexts/party/election-service/domain/entities"
	"payparty/contexts/party/election-service/domain/tally"
	"payparty/contexts/party/election-service/ports"
)

// ElectionState is an election together with its live tally.
type ElectionState struct {
	Election entities.Election
	Tally    entities.TallyResult
}

// TallyUseCase serves read models. Tallies are recomputed from the stored
// ballots on every call and never cached.
type TallyUseCase struct {
	Documents ports.DocumentStore
}

func (uc TallyUseCase) GetElection(ctx context.Context, electionID string) (ElectionState, error) {
	election, err := uc.Documents.LoadElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return ElectionState{}, err
	}
	ballots, err := uc.Documents.LoadBallots(ctx, election.ElectionID)
	if err != nil {
		return ElectionState{}, err
	}
	result, err := tally.Tally(election, ballots)
	if err != nil {
		return ElectionState{}, err
	}
	return ElectionState{Election: election, Tally: result}, nil
}

func (uc TallyUseCase) ListElections(ctx context.Context) ([]entities.Election, error) {
	items, err := uc.Documents.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ElectionID < items[j].ElectionID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (uc TallyUseCase) CandidateScores(ctx context.Context, electionID string) ([]float64, error) {
	state, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return state.Tally.TotalScores, nil
}

func (uc TallyUseCase) FinalPayout(ctx context.Context, electionID string) (entities.TallyResult, error) {
	state, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	return state.Tally, nil
}

func (uc TallyUseCase) HasVoted(ctx context.Context, electionID string, voter string) (bool, error) {
	election, err := uc.Documents.LoadElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return false, err
	}
	ballots, err := uc.Documents.LoadBallots(ctx, election.ElectionID)
	if err != nil {
		return false, err
	}
	return tally.HasVoted(ballots, election.ElectionID, voter), nil
}
