package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	application "payparty/contexts/party/election-service/application"
	"payparty/contexts/party/election-service/application/commands"
	"payparty/contexts/party/election-service/application/queries"
	"payparty/contexts/party/election-service/domain/entities"
	httptransport "payparty/contexts/party/election-service/transport/http"

	"github.com/samber/lo"
)

type Handler struct {
	Elections commands.ElectionUseCase
	Ballots   commands.BallotUseCase
	Tallies   queries.TallyUseCase
	Logger    *slog.Logger
}

// CreateElectionHandler godoc
// @Summary Create an election
// @Description Creates an election document, anchors it on chain when configured, and opens it for voting.
// @Tags party-elections
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Creator address"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.CreateElectionRequest true "Election payload"
// @Success 201 {object} httptransport.ElectionResponse
// @Success 200 {object} httptransport.ElectionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections [post]
func (h Handler) CreateElectionHandler(
	ctx context.Context,
	creator string,
	idempotencyKey string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	logger := application.ResolveLogger(h.Logger, "transport")
	result, err := h.Elections.CreateElection(ctx, commands.CreateElectionCommand{
		Creator:        creator,
		IdempotencyKey: idempotencyKey,
		Name:           req.Name,
		Description:    req.Description,
		Candidates:     req.Candidates,
		Voters:         req.Voters,
		Strategy:       entities.Strategy(req.Kind),
		VoteAllocation: req.VoteAllocation,
		TokenAddress:   req.TokenAddress,
		FundAmount:     req.FundAmount,
	})
	if err != nil {
		logger.Error("create election request failed",
			"event", "http_party_create_election_failed",
			"creator", creator,
			"error", err.Error(),
		)
		return httptransport.ElectionResponse{}, err
	}
	resp := mapElection(result.Election)
	resp.Replayed = result.Replayed
	return resp, nil
}

// ListElectionsHandler godoc
// @Summary List elections
// @Description Returns every election, newest first.
// @Tags party-elections
// @Produce json
// @Success 200 {object} httptransport.ListElectionsResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections [get]
func (h Handler) ListElectionsHandler(ctx context.Context) (httptransport.ListElectionsResponse, error) {
	items, err := h.Tallies.ListElections(ctx)
	if err != nil {
		return httptransport.ListElectionsResponse{}, err
	}
	return httptransport.ListElectionsResponse{
		Items: lo.Map(items, func(item entities.Election, _ int) httptransport.ElectionResponse {
			return mapElection(item)
		}),
	}, nil
}

// GetElectionHandler godoc
// @Summary Get election state
// @Description Returns the election document with its live tally.
// @Tags party-elections
// @Produce json
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.ElectionStateResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id} [get]
func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionStateResponse, error) {
	state, err := h.Tallies.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionStateResponse{}, err
	}
	return httptransport.ElectionStateResponse{
		Election: mapElection(state.Election),
		Tally:    mapTally(state.Tally),
	}, nil
}

// CloseElectionHandler godoc
// @Summary Close an election
// @Description Ends voting. Only the creator may close an election; closing twice is a no-op.
// @Tags party-elections
// @Produce json
// @Param X-User-Id header string true "Creator address"
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.ElectionResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/close [post]
func (h Handler) CloseElectionHandler(ctx context.Context, electionID string, actorID string) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.CloseElection(ctx, commands.CloseElectionCommand{
		ElectionID: electionID,
		ActorID:    actorID,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

// CastBallotHandler godoc
// @Summary Cast a ballot
// @Description Records one ballot per voter. A repeat submission returns status "rejected" with the current tally.
// @Tags party-ballots
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter address"
// @Param election_id path string true "Election id"
// @Param request body httptransport.CastBallotRequest true "Positional vote attribution"
// @Success 201 {object} httptransport.CastBallotResponse
// @Success 200 {object} httptransport.CastBallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/ballots [post]
func (h Handler) CastBallotHandler(
	ctx context.Context,
	electionID string,
	voter string,
	req httptransport.CastBallotRequest,
) (httptransport.CastBallotResponse, error) {
	result, err := h.Ballots.CastBallot(ctx, commands.CastBallotCommand{
		ElectionID: electionID,
		Voter:      voter,
		VoteAttribution: lo.Map(req.VoteAttribution, func(item httptransport.VoteAttribution, _ int) entities.VoteAttribution {
			return entities.VoteAttribution{Candidate: item.Candidate, Score: item.Score}
		}),
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	return httptransport.CastBallotResponse{
		Status:   string(result.Outcome),
		BallotID: result.Ballot.BallotID,
		Tally:    mapTally(result.Tally),
	}, nil
}

// CandidateScoresHandler godoc
// @Summary Candidate scores
// @Description Returns per-candidate score totals aligned with the candidate list.
// @Tags party-tally
// @Produce json
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.CandidateScoresResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/scores [get]
func (h Handler) CandidateScoresHandler(ctx context.Context, electionID string) (httptransport.CandidateScoresResponse, error) {
	result, err := h.Tallies.FinalPayout(ctx, electionID)
	if err != nil {
		return httptransport.CandidateScoresResponse{}, err
	}
	return httptransport.CandidateScoresResponse{
		ElectionID:  result.ElectionID,
		Candidates:  result.Candidates,
		TotalScores: result.TotalScores,
	}, nil
}

// FinalPayoutHandler godoc
// @Summary Final payout
// @Description Returns the proportional payout of the fund across candidates.
// @Tags party-tally
// @Produce json
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.TallyResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/payout [get]
func (h Handler) FinalPayoutHandler(ctx context.Context, electionID string) (httptransport.TallyResponse, error) {
	result, err := h.Tallies.FinalPayout(ctx, electionID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

// HasVotedHandler godoc
// @Summary Has voted
// @Description Reports whether the voter already holds a ballot in the election.
// @Tags party-ballots
// @Produce json
// @Param election_id path string true "Election id"
// @Param voter path string true "Voter address"
// @Success 200 {object} httptransport.HasVotedResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /party/elections/{election_id}/voters/{voter} [get]
func (h Handler) HasVotedHandler(ctx context.Context, electionID string, voter string) (httptransport.HasVotedResponse, error) {
	voted, err := h.Tallies.HasVoted(ctx, electionID, voter)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		ElectionID: electionID,
		Voter:      voter,
		HasVoted:   voted,
	}, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:     election.ElectionID,
		Name:           election.Name,
		Description:    election.Description,
		Creator:        election.Creator,
		Kind:           string(election.Strategy),
		VoteAllocation: election.VoteAllocation,
		Candidates:     election.Candidates,
		Voters:         election.Voters,
		TokenAddress:   election.TokenAddress,
		FundAmount:     election.FundAmount,
		AnchorTxHash:   election.AnchorTxHash,
		PaidTxHash:     election.PaidTxHash,
		IsActive:       election.IsActive,
		IsPaid:         election.IsPaid,
		CreatedAt:      election.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapTally(result entities.TallyResult) httptransport.TallyResponse {
	return httptransport.TallyResponse{
		ElectionID:  result.ElectionID,
		Candidates:  result.Candidates,
		TotalScores: result.TotalScores,
		Payout: lo.Map(result.Payout, func(amount *big.Int, _ int) string {
			if amount == nil {
				return "0"
			}
			return amount.String()
		}),
		ScoreSum:    result.ScoreSum,
		BallotCount: result.BallotCount,
	}
}
