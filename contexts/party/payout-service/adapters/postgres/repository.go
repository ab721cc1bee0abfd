package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"
	domainerrors "payparty/contexts/party/payout-service/domain/errors"
	"payparty/contexts/party/payout-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&distributionModel{}); err != nil {
		return r.logError("party_payout_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateDistribution(ctx context.Context, distribution entities.Distribution) error {
	row := distributionModelFromEntity(distribution)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("party_payout_repo_create_failed", err,
			"distribution_id", row.ID,
			"election_id", row.ElectionID,
		)
	}
	return nil
}

// UpdateDistribution persists settlement and receipt progress. The paid rows
// are written at creation and never change.
func (r *Repository) UpdateDistribution(ctx context.Context, distribution entities.Distribution) error {
	result := r.db.WithContext(ctx).
		Model(&distributionModel{}).
		Where("id = ?", strings.TrimSpace(distribution.DistributionID)).
		Updates(map[string]any{
			"tx_hash":            distribution.TxHash,
			"block_number":       distribution.BlockNumber,
			"status":             string(distribution.Status),
			"receipt_status":     string(distribution.ReceiptStatus),
			"receipt_attempts":   distribution.ReceiptAttempts,
			"last_receipt_error": distribution.LastReceiptError,
			"updated_at":         distribution.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("party_payout_repo_update_failed", result.Error,
			"distribution_id", distribution.DistributionID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDistributionNotFound
	}
	return nil
}

func (r *Repository) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	var row distributionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(distributionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Distribution{}, domainerrors.ErrDistributionNotFound
		}
		return entities.Distribution{}, r.logError("party_payout_repo_get_failed", err,
			"distribution_id", strings.TrimSpace(distributionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListDistributions(ctx context.Context, electionID string) ([]entities.Distribution, error) {
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("party_payout_repo_list_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListPendingReceipts(ctx context.Context, limit int, maxAttempts int) ([]entities.Distribution, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND receipt_status = ? AND receipt_attempts < ?",
			string(entities.DistributionConfirmed),
			string(entities.ReceiptPending),
			maxAttempts,
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("party_payout_repo_list_pending_receipts_failed", err, "limit", limit)
	}
	return toEntities(rows), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "party/payout-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payout repository operation failed", fields...)
	return err
}

// distributionModel stores wei amounts as base-10 strings; they routinely
// exceed 64 bits. The partial unique index on election_id allows any number
// of failed rows but only one submitting or confirmed row per election.
type distributionModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ElectionID       string    `gorm:"column:election_id;uniqueIndex:idx_party_distributions_held,where:status <> 'failed'"`
	Account          string    `gorm:"column:account"`
	Candidates       []string  `gorm:"column:candidates;serializer:json"`
	Amounts          []string  `gorm:"column:amounts;serializer:json"`
	Total            string    `gorm:"column:total"`
	TokenAddress     string    `gorm:"column:token_address"`
	TxHash           string    `gorm:"column:tx_hash;uniqueIndex:idx_party_distributions_sent_tx_hash,where:tx_hash <> ''"`
	BlockNumber      uint64    `gorm:"column:block_number"`
	Status           string    `gorm:"column:status"`
	ReceiptStatus    string    `gorm:"column:receipt_status;index"`
	ReceiptAttempts  int       `gorm:"column:receipt_attempts"`
	LastReceiptError string    `gorm:"column:last_receipt_error"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (distributionModel) TableName() string {
	return "party_distributions"
}

func distributionModelFromEntity(distribution entities.Distribution) distributionModel {
	amounts := make([]string, 0, len(distribution.Amounts))
	for _, amount := range distribution.Amounts {
		if amount == nil {
			amounts = append(amounts, "0")
			continue
		}
		amounts = append(amounts, amount.String())
	}
	total := entities.SumAmounts(distribution.Amounts)
	if distribution.Total != nil {
		total = distribution.Total
	}
	row := distributionModel{
		ID:               strings.TrimSpace(distribution.DistributionID),
		ElectionID:       strings.TrimSpace(distribution.ElectionID),
		Account:          strings.TrimSpace(distribution.Account),
		Candidates:       append([]string(nil), distribution.Candidates...),
		Amounts:          amounts,
		Total:            total.String(),
		TokenAddress:     distribution.TokenAddress,
		TxHash:           distribution.TxHash,
		BlockNumber:      distribution.BlockNumber,
		Status:           string(distribution.Status),
		ReceiptStatus:    string(distribution.ReceiptStatus),
		ReceiptAttempts:  distribution.ReceiptAttempts,
		LastReceiptError: distribution.LastReceiptError,
		CreatedAt:        distribution.CreatedAt.UTC(),
		UpdatedAt:        distribution.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m distributionModel) toEntity() entities.Distribution {
	amounts := make([]*big.Int, 0, len(m.Amounts))
	for _, raw := range m.Amounts {
		amounts = append(amounts, parseWei(raw))
	}
	return entities.Distribution{
		DistributionID:   m.ID,
		ElectionID:       m.ElectionID,
		Account:          m.Account,
		Candidates:       append([]string(nil), m.Candidates...),
		Amounts:          amounts,
		Total:            parseWei(m.Total),
		TokenAddress:     m.TokenAddress,
		TxHash:           m.TxHash,
		BlockNumber:      m.BlockNumber,
		Status:           entities.DistributionStatus(m.Status),
		ReceiptStatus:    entities.ReceiptStatus(m.ReceiptStatus),
		ReceiptAttempts:  m.ReceiptAttempts,
		LastReceiptError: m.LastReceiptError,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func toEntities(rows []distributionModel) []entities.Distribution {
	items := make([]entities.Distribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func parseWei(raw string) *big.Int {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return new(big.Int)
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
