package postgresadapter

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm/schema"
)

func TestDistributionModelKeepsWeiPrecision(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	source := entities.Distribution{
		DistributionID: "dist-1",
		ElectionID:     "election-1",
		Account:        "0xCreator",
		Candidates:     []string{"0xA", "0xB"},
		Amounts:        []*big.Int{huge, big.NewInt(7)},
		TokenAddress:   "0xToken",
		TxHash:         "0xabc",
		BlockNumber:    42,
		Status:         entities.DistributionConfirmed,
		ReceiptStatus:  entities.ReceiptPending,
		CreatedAt:      created,
	}

	row := distributionModelFromEntity(source)
	if row.Total != "123456789012345678901234567897" {
		t.Fatalf("expected total derived from amounts, got %s", row.Total)
	}
	if !row.UpdatedAt.Equal(created) {
		t.Fatalf("expected updated_at to default to created_at, got %v", row.UpdatedAt)
	}

	back := row.toEntity()
	if back.Amounts[0].Cmp(huge) != 0 || back.Amounts[1].Int64() != 7 {
		t.Fatalf("unexpected amounts after round trip: %v", back.Amounts)
	}
	if back.Status != entities.DistributionConfirmed || back.ReceiptStatus != entities.ReceiptPending {
		t.Fatalf("unexpected statuses: %+v", back)
	}
}

func TestParseWeiTreatsGarbageAsZero(t *testing.T) {
	if parseWei("not-a-number").Sign() != 0 {
		t.Fatalf("expected zero for unparsable amount")
	}
	if parseWei(" 15 ").Int64() != 15 {
		t.Fatalf("expected surrounding space ignored")
	}
}

func TestIsUniqueViolationUnwraps(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(err) {
		t.Fatalf("expected wrapped 23505 to be detected")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error must not be a unique violation")
	}
}

func TestDistributionModelHoldsOneOpenRowPerElection(t *testing.T) {
	parsed, err := schema.Parse(&distributionModel{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}

	held := parsed.LookIndex("idx_party_distributions_held")
	if held == nil {
		t.Fatalf("expected per-election index")
	}
	if held.Class != "UNIQUE" || held.Where != "status <> 'failed'" {
		t.Fatalf("expected unique index over non-failed rows, got class=%q where=%q", held.Class, held.Where)
	}
	if len(held.Fields) != 1 || held.Fields[0].DBName != "election_id" {
		t.Fatalf("expected index on election_id, got %+v", held.Fields)
	}

	txHash := parsed.LookIndex("idx_party_distributions_sent_tx_hash")
	if txHash == nil || txHash.Class != "UNIQUE" || txHash.Where != "tx_hash <> ''" {
		t.Fatalf("expected unique tx hash index that skips unsent rows, got %+v", txHash)
	}
}

func TestDistributionModelCarriesSubmittingClaim(t *testing.T) {
	row := distributionModelFromEntity(entities.Distribution{
		DistributionID: "dist-2",
		ElectionID:     "election-1",
		Amounts:        []*big.Int{big.NewInt(3)},
		Status:         entities.DistributionSubmitting,
		ReceiptStatus:  entities.ReceiptPending,
	})
	if row.TxHash != "" || row.Status != "submitting" {
		t.Fatalf("expected unsent claim row, got %+v", row)
	}
	if !row.toEntity().HoldsElection() {
		t.Fatalf("expected submitting row to hold its election")
	}
}
