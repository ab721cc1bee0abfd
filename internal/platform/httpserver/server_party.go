package httpserver

import (
	"errors"
	"net/http"
	"strings"

	electiondomainerrors "payparty/contexts/party/election-service/domain/errors"
	electionhttp "payparty/contexts/party/election-service/transport/http"

	"github.com/goccy/go-json"
)

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		writeElectionError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}

	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), userID, idempotencyKey, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.CloseElectionHandler(r.Context(), r.PathValue("election_id"), userID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCastBallot answers 201 for a recorded ballot and 200 for a rejected
// repeat; both carry the tally.
func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req electionhttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.CastBallotHandler(r.Context(), r.PathValue("election_id"), userID, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Status != "accepted" {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCandidateScores(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.CandidateScoresHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalPayout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.FinalPayoutHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.HasVotedHandler(r.Context(), r.PathValue("election_id"), r.PathValue("voter"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, electiondomainerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, electiondomainerrors.ErrForbidden):
		writeElectionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, electiondomainerrors.ErrVoterNotEligible):
		writeElectionError(w, http.StatusForbidden, "voter_not_eligible", err.Error())
	case errors.Is(err, electiondomainerrors.ErrElectionClosed):
		writeElectionError(w, http.StatusConflict, "election_closed", err.Error())
	case errors.Is(err, electiondomainerrors.ErrElectionAlreadyPaid):
		writeElectionError(w, http.StatusConflict, "election_already_paid", err.Error())
	case errors.Is(err, electiondomainerrors.ErrElectionExists):
		writeElectionError(w, http.StatusConflict, "election_exists", err.Error())
	case errors.Is(err, electiondomainerrors.ErrDuplicateBallot):
		writeElectionError(w, http.StatusConflict, "duplicate_ballot", err.Error())
	case errors.Is(err, electiondomainerrors.ErrIdempotencyConflict):
		writeElectionError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, electiondomainerrors.ErrConflict):
		writeElectionError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, electiondomainerrors.ErrMalformedBallot):
		writeElectionError(w, http.StatusUnprocessableEntity, "malformed_ballot", err.Error())
	case errors.Is(err, electiondomainerrors.ErrBallotExceedsAllocation):
		writeElectionError(w, http.StatusBadRequest, "allocation_exceeded", err.Error())
	case errors.Is(err, electiondomainerrors.ErrInvalidBallotInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_ballot", err.Error())
	case errors.Is(err, electiondomainerrors.ErrInvalidElectionInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_election", err.Error())
	case errors.Is(err, electiondomainerrors.ErrIdempotencyKeyRequired):
		writeElectionError(w, http.StatusBadRequest, "missing_idempotency_key", err.Error())
	case errors.Is(err, electiondomainerrors.ErrAnchorFailed):
		writeElectionError(w, http.StatusBadGateway, "anchor_failed", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
