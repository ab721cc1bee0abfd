package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "payparty/contexts/party/election-service/application"
	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/ports"
	eventsv1 "payparty/contracts/gen/events/v1"

	"github.com/samber/lo"
)

// CreateElectionCommand is the write-model input for a new election.
type CreateElectionCommand struct {
	Creator        string
	IdempotencyKey string
	Name           string
	Description    string
	Candidates     []string
	Voters         []string
	Strategy       entities.Strategy
	VoteAllocation int
	TokenAddress   string
	FundAmount     string
}

type CreateElectionResult struct {
	Election entities.Election
	Replayed bool
}

type CloseElectionCommand struct {
	ElectionID string
	ActorID    string
}

type MarkPaidCommand struct {
	ElectionID string
	ActorID    string
	TxHash     string
}

// ElectionUseCase owns the election lifecycle. IsActive only moves
// true -> false and IsPaid only moves false -> true, and both transitions are
// reserved for the creator.
type ElectionUseCase struct {
	Documents      ports.DocumentStore
	Idempotency    ports.IdempotencyStore
	Anchor         ports.ElectionAnchor
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc ElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (CreateElectionResult, error) {
	logger := application.ResolveLogger(uc.Logger, "application")
	cmd, err := normalizeCreateElection(cmd)
	if err != nil {
		logger.Warn("election create validation failed",
			"event", "party_election_create_validation_failed",
			"creator", cmd.Creator,
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateElectionResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCreateElectionCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		logger.Error("election create idempotency lookup failed",
			"event", "party_election_create_idempotency_lookup_failed",
			"creator", cmd.Creator,
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			logger.Warn("election create idempotency conflict",
				"event", "party_election_create_idempotency_conflict",
				"creator", cmd.Creator,
			)
			return CreateElectionResult{}, domainerrors.ErrIdempotencyConflict
		}
		election, err := uc.Documents.LoadElection(ctx, record.ElectionID)
		if err != nil {
			return CreateElectionResult{}, err
		}
		logger.Info("election create replayed",
			"event", "party_election_create_replayed",
			"election_id", election.ElectionID,
		)
		return CreateElectionResult{Election: election, Replayed: true}, nil
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateElectionResult{}, err
	}
	election := entities.Election{
		ElectionID:     electionID,
		Name:           cmd.Name,
		Description:    cmd.Description,
		Creator:        cmd.Creator,
		Strategy:       cmd.Strategy,
		VoteAllocation: cmd.VoteAllocation,
		Candidates:     cmd.Candidates,
		Voters:         cmd.Voters,
		TokenAddress:   cmd.TokenAddress,
		FundAmount:     cmd.FundAmount,
		IsActive:       true,
		IsPaid:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if uc.Anchor != nil {
		txHash, err := uc.Anchor.AnchorElection(ctx, election.ElectionID)
		if err != nil {
			logger.Error("election anchor failed",
				"event", "party_election_anchor_failed",
				"election_id", election.ElectionID,
				"error", err.Error(),
			)
			return CreateElectionResult{}, fmt.Errorf("%w: %w", domainerrors.ErrAnchorFailed, err)
		}
		election.AnchorTxHash = txHash
	}

	if err := uc.Documents.CreateElection(ctx, election); err != nil {
		return CreateElectionResult{}, err
	}
	if err := appendElectionEvent(ctx, uc.Outbox, uc.IDGen, eventsv1.EventElectionCreated, election.ElectionID, now,
		eventsv1.ElectionCreated{
			ElectionID:   election.ElectionID,
			Creator:      election.Creator,
			Candidates:   election.Candidates,
			FundAmount:   election.FundAmount,
			TokenAddress: election.TokenAddress,
			AnchorTxHash: election.AnchorTxHash,
			OccurredAt:   now.Format(time.RFC3339),
		},
	); err != nil {
		return CreateElectionResult{}, err
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         cmd.IdempotencyKey,
		RequestHash: requestHash,
		ElectionID:  election.ElectionID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CreateElectionResult{}, err
	}

	logger.Info("election created",
		"event", "party_election_created",
		"election_id", election.ElectionID,
		"creator", election.Creator,
		"candidates", len(election.Candidates),
		"voters", len(election.Voters),
		"fund_amount", election.FundAmount,
	)
	return CreateElectionResult{Election: election}, nil
}

// CloseElection ends voting. Closing an already closed election is a no-op.
func (uc ElectionUseCase) CloseElection(ctx context.Context, cmd CloseElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger, "application")
	election, err := uc.Documents.LoadElection(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if !election.IsCreator(cmd.ActorID) {
		logger.Warn("election close forbidden",
			"event", "party_election_close_forbidden",
			"election_id", election.ElectionID,
			"actor_id", strings.TrimSpace(cmd.ActorID),
		)
		return entities.Election{}, domainerrors.ErrForbidden
	}
	if !election.IsActive {
		return election, nil
	}

	now := uc.now()
	inactive := false
	updated, err := uc.Documents.UpdateElection(ctx, election.ElectionID, entities.ElectionPatch{
		IsActive:  &inactive,
		UpdatedAt: now,
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := appendElectionEvent(ctx, uc.Outbox, uc.IDGen, eventsv1.EventElectionClosed, updated.ElectionID, now,
		eventsv1.ElectionClosed{
			ElectionID: updated.ElectionID,
			ClosedBy:   strings.TrimSpace(cmd.ActorID),
			OccurredAt: now.Format(time.RFC3339),
		},
	); err != nil {
		return entities.Election{}, err
	}

	logger.Info("election closed",
		"event", "party_election_closed",
		"election_id", updated.ElectionID,
	)
	return updated, nil
}

// MarkPaid records a successful payout transaction. An election is paid at
// most once.
func (uc ElectionUseCase) MarkPaid(ctx context.Context, cmd MarkPaidCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger, "application")
	txHash := strings.TrimSpace(cmd.TxHash)
	if txHash == "" {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	election, err := uc.Documents.LoadElection(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if !election.IsCreator(cmd.ActorID) {
		return entities.Election{}, domainerrors.ErrForbidden
	}
	if election.IsPaid {
		logger.Warn("election already paid",
			"event", "party_election_mark_paid_repeated",
			"election_id", election.ElectionID,
			"paid_tx_hash", election.PaidTxHash,
			"tx_hash", txHash,
		)
		return entities.Election{}, domainerrors.ErrElectionAlreadyPaid
	}

	now := uc.now()
	paid := true
	updated, err := uc.Documents.UpdateElection(ctx, election.ElectionID, entities.ElectionPatch{
		IsPaid:     &paid,
		PaidTxHash: &txHash,
		UpdatedAt:  now,
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := appendElectionEvent(ctx, uc.Outbox, uc.IDGen, eventsv1.EventElectionPaid, updated.ElectionID, now,
		eventsv1.ElectionPaid{
			ElectionID: updated.ElectionID,
			PaidBy:     strings.TrimSpace(cmd.ActorID),
			TxHash:     txHash,
			OccurredAt: now.Format(time.RFC3339),
		},
	); err != nil {
		return entities.Election{}, err
	}

	logger.Info("election marked paid",
		"event", "party_election_paid",
		"election_id", updated.ElectionID,
		"tx_hash", txHash,
	)
	return updated, nil
}

func (uc ElectionUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc ElectionUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func normalizeCreateElection(cmd CreateElectionCommand) (CreateElectionCommand, error) {
	cmd.Creator = strings.TrimSpace(cmd.Creator)
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Description = strings.TrimSpace(cmd.Description)
	cmd.TokenAddress = strings.TrimSpace(cmd.TokenAddress)
	cmd.FundAmount = strings.TrimSpace(cmd.FundAmount)
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)
	cmd.Candidates = trimIdentities(cmd.Candidates)
	cmd.Voters = lo.UniqBy(trimIdentities(cmd.Voters), entities.NormalizeIdentity)

	if cmd.Creator == "" || cmd.Name == "" || len(cmd.Candidates) == 0 || len(cmd.Voters) == 0 {
		return cmd, domainerrors.ErrInvalidElectionInput
	}
	// Candidate order is the ballot alignment key, so a repeated candidate
	// would make two positions indistinguishable.
	if len(lo.UniqBy(cmd.Candidates, entities.NormalizeIdentity)) != len(cmd.Candidates) {
		return cmd, fmt.Errorf("%w: duplicate candidate", domainerrors.ErrInvalidElectionInput)
	}
	if cmd.FundAmount == "" {
		cmd.FundAmount = "0"
	}
	if _, ok := entities.ParseFundAmount(cmd.FundAmount); !ok {
		return cmd, fmt.Errorf("%w: fund amount must be a non-negative integer", domainerrors.ErrInvalidElectionInput)
	}
	switch cmd.Strategy {
	case "":
		cmd.Strategy = entities.StrategyQuadratic
	case entities.StrategyLinear, entities.StrategyQuadratic:
	default:
		return cmd, fmt.Errorf("%w: unknown strategy %q", domainerrors.ErrInvalidElectionInput, cmd.Strategy)
	}
	if cmd.VoteAllocation < 0 {
		return cmd, fmt.Errorf("%w: vote allocation must not be negative", domainerrors.ErrInvalidElectionInput)
	}
	return cmd, nil
}

func trimIdentities(values []string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			items = append(items, value)
		}
	}
	return items
}

func hashCreateElectionCommand(cmd CreateElectionCommand) string {
	payload := map[string]any{
		"creator":         cmd.Creator,
		"name":            cmd.Name,
		"description":     cmd.Description,
		"candidates":      cmd.Candidates,
		"voters":          cmd.Voters,
		"strategy":        string(cmd.Strategy),
		"vote_allocation": cmd.VoteAllocation,
		"token_address":   cmd.TokenAddress,
		"fund_amount":     cmd.FundAmount,
		"op":              "create_election",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
