package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"payparty/contexts/party/election-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestElectionModelRoundTripKeepsCandidateOrder(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	election := entities.Election{
		ElectionID:     " election-1 ",
		Name:           "Q1 grants",
		Creator:        "0xCreator",
		Strategy:       entities.StrategyLinear,
		VoteAllocation: 10,
		Candidates:     []string{"0xC", "0xA", "0xB"},
		Voters:         []string{"0xV1"},
		FundAmount:     "1000",
		IsActive:       true,
		CreatedAt:      createdAt,
	}

	row := electionModelFromEntity(election)
	if row.ID != "election-1" {
		t.Fatalf("expected trimmed id, got %q", row.ID)
	}
	if !row.UpdatedAt.Equal(row.CreatedAt) {
		t.Fatalf("expected updated_at to default to created_at, got %v", row.UpdatedAt)
	}

	got := row.toEntity()
	if fmt.Sprint(got.Candidates) != "[0xC 0xA 0xB]" {
		t.Fatalf("expected candidate order preserved, got %v", got.Candidates)
	}
	if got.Strategy != entities.StrategyLinear || got.VoteAllocation != 10 {
		t.Fatalf("unexpected strategy fields: %+v", got)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps, got %v", got.CreatedAt.Location())
	}
}

func TestBallotModelNormalizesVoterKey(t *testing.T) {
	ballot := entities.Ballot{
		BallotID:   "ballot-1",
		ElectionID: "election-1",
		Voter:      " 0xAbCd ",
		VoteAttribution: []entities.VoteAttribution{
			{Candidate: "0xA", Score: 2},
			{Candidate: "0xB", Score: 0.5},
		},
	}

	row := ballotModelFromEntity(ballot)
	if row.VoterKey != "0xabcd" {
		t.Fatalf("expected normalized voter key, got %q", row.VoterKey)
	}
	if row.Voter != "0xAbCd" {
		t.Fatalf("expected voter kept as submitted, got %q", row.Voter)
	}
	if row.CreatedAt.IsZero() {
		t.Fatalf("expected created_at default")
	}

	got := row.toEntity()
	if len(got.VoteAttribution) != 2 || got.VoteAttribution[1].Score != 0.5 {
		t.Fatalf("unexpected attribution: %+v", got.VoteAttribution)
	}
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	foreignKey := &pgconn.PgError{Code: "23503"}

	if !isUniqueViolation(unique) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(foreignKey) {
		t.Fatalf("expected 23503 not to be a unique violation")
	}
	if !isForeignKeyViolation(foreignKey) {
		t.Fatalf("expected 23503 to be a foreign key violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("expected plain error not to be classified")
	}
}
