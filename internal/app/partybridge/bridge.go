// Package partybridge adapts the election service to the payout service's
// Elections port. The services never import each other; the composition root
// joins them here.
package partybridge

import (
	"context"
	"errors"
	"fmt"

	electionservice "payparty/contexts/party/election-service"
	"payparty/contexts/party/election-service/application/commands"
	electionerrors "payparty/contexts/party/election-service/domain/errors"
	payouterrors "payparty/contexts/party/payout-service/domain/errors"
	payoutports "payparty/contexts/party/payout-service/ports"
)

type Elections struct {
	module electionservice.Module
}

func New(module electionservice.Module) Elections {
	return Elections{module: module}
}

func (e Elections) FinalPayout(ctx context.Context, electionID string) (payoutports.PayoutPlan, error) {
	state, err := e.module.Handler.Tallies.GetElection(ctx, electionID)
	if err != nil {
		return payoutports.PayoutPlan{}, translate(err)
	}
	return payoutports.PayoutPlan{
		ElectionID:   state.Election.ElectionID,
		Creator:      state.Election.Creator,
		Candidates:   append([]string(nil), state.Tally.Candidates...),
		Amounts:      state.Tally.Payout,
		TokenAddress: state.Election.TokenAddress,
		IsActive:     state.Election.IsActive,
		IsPaid:       state.Election.IsPaid,
	}, nil
}

func (e Elections) MarkPaid(ctx context.Context, electionID string, actorID string, txHash string) error {
	_, err := e.module.Handler.Elections.MarkPaid(ctx, commands.MarkPaidCommand{
		ElectionID: electionID,
		ActorID:    actorID,
		TxHash:     txHash,
	})
	return translate(err)
}

// translate keeps the election error in the chain so callers can still match
// either side.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, electionerrors.ErrElectionNotFound):
		return fmt.Errorf("%w: %w", payouterrors.ErrElectionNotFound, err)
	case errors.Is(err, electionerrors.ErrElectionAlreadyPaid):
		return fmt.Errorf("%w: %w", payouterrors.ErrAlreadyPaid, err)
	case errors.Is(err, electionerrors.ErrForbidden):
		return fmt.Errorf("%w: %w", payouterrors.ErrForbidden, err)
	default:
		return err
	}
}

var _ payoutports.Elections = Elections{}
