package httpserver

import (
	"errors"
	"net/http"

	payoutdomainerrors "payparty/contexts/party/payout-service/domain/errors"
	payouthttp "payparty/contexts/party/payout-service/transport/http"
)

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.payouts.Handler.DistributeHandler(r.Context(), r.PathValue("election_id"), userID)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.ListDistributionsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writePayoutDomainError falls back to the election mapping, since the final
// payout is read through the election service.
func writePayoutDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payoutdomainerrors.ErrElectionNotFound):
		writePayoutError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrDistributionNotFound):
		writePayoutError(w, http.StatusNotFound, "distribution_not_found", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrForbidden):
		writePayoutError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrAlreadyPaid):
		writePayoutError(w, http.StatusConflict, "already_paid", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrElectionStillActive):
		writePayoutError(w, http.StatusConflict, "election_active", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrDistributionInProgress):
		writePayoutError(w, http.StatusConflict, "distribution_in_progress", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrPaymentUnconfirmed):
		writePayoutError(w, http.StatusGatewayTimeout, "payment_unconfirmed", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrConflict):
		writePayoutError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrNothingToDistribute):
		writePayoutError(w, http.StatusUnprocessableEntity, "nothing_to_distribute", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrInvalidCandidateAddress):
		writePayoutError(w, http.StatusUnprocessableEntity, "invalid_candidate_address", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrPaymentFailed):
		writePayoutError(w, http.StatusBadGateway, "payment_failed", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrTransactionFailed):
		writePayoutError(w, http.StatusBadGateway, "transaction_failed", err.Error())
	default:
		writeElectionDomainError(w, err)
	}
}

func writePayoutError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, payouthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
