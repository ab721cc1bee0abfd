package postgresadapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/ports"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

// AutoMigrate creates or updates the election tables.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&electionModel{},
		&ballotModel{},
		&idempotencyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("party_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrElectionExists
		}
		return r.logError("party_repo_create_election_failed", err, "election_id", row.ID)
	}
	return nil
}

func (r *Repository) LoadElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("party_repo_load_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("party_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// UpdateElection applies the patch under a row lock so concurrent close and
// paid transitions serialize.
func (r *Repository) UpdateElection(
	ctx context.Context,
	electionID string,
	patch entities.ElectionPatch,
) (entities.Election, error) {
	var updated entities.Election
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row electionModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(electionID)).
			First(&row).Error; err != nil {
			return err
		}
		updated = patch.Apply(row.toEntity())
		return tx.Model(&electionModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"is_active":    updated.IsActive,
				"is_paid":      updated.IsPaid,
				"paid_tx_hash": updated.PaidTxHash,
				"updated_at":   updated.UpdatedAt.UTC(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("party_repo_update_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return updated, nil
}

func (r *Repository) LoadBallots(ctx context.Context, electionID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("party_repo_load_ballots_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CreateBallot holds a share lock on the election row while inserting, so it
// serializes with the close in UpdateElection.
func (r *Repository) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var election electionModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "is_active").
			Where("id = ?", row.ElectionID).
			First(&election).Error; err != nil {
			return err
		}
		if !election.IsActive {
			return domainerrors.ErrElectionClosed
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionClosed) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrElectionNotFound
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateBallot
		}
		if isForeignKeyViolation(err) {
			return domainerrors.ErrElectionNotFound
		}
		return r.logError("party_repo_create_ballot_failed", err,
			"election_id", row.ElectionID,
			"voter", row.Voter,
		)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("party_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("party_repo_idempotency_expire_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		ElectionID:  row.ElectionID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		ElectionID:  strings.TrimSpace(record.ElectionID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("party_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("party_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.ElectionID != row.ElectionID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("party_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("party_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("party_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("party_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("party_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "party/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

type electionModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	Name           string    `gorm:"column:name"`
	Description    string    `gorm:"column:description"`
	Creator        string    `gorm:"column:creator;index"`
	Kind           string    `gorm:"column:kind"`
	VoteAllocation int       `gorm:"column:vote_allocation"`
	Candidates     []string  `gorm:"column:candidates;serializer:json"`
	Voters         []string  `gorm:"column:voters;serializer:json"`
	TokenAddress   string    `gorm:"column:token_address"`
	FundAmount     string    `gorm:"column:fund_amount"`
	AnchorTxHash   string    `gorm:"column:anchor_tx_hash"`
	PaidTxHash     string    `gorm:"column:paid_tx_hash"`
	IsActive       bool      `gorm:"column:is_active"`
	IsPaid         bool      `gorm:"column:is_paid"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "party_elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:             strings.TrimSpace(election.ElectionID),
		Name:           election.Name,
		Description:    election.Description,
		Creator:        strings.TrimSpace(election.Creator),
		Kind:           string(election.Strategy),
		VoteAllocation: election.VoteAllocation,
		Candidates:     append([]string(nil), election.Candidates...),
		Voters:         append([]string(nil), election.Voters...),
		TokenAddress:   strings.TrimSpace(election.TokenAddress),
		FundAmount:     strings.TrimSpace(election.FundAmount),
		AnchorTxHash:   election.AnchorTxHash,
		PaidTxHash:     election.PaidTxHash,
		IsActive:       election.IsActive,
		IsPaid:         election.IsPaid,
		CreatedAt:      election.CreatedAt.UTC(),
		UpdatedAt:      election.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:     m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Creator:        m.Creator,
		Strategy:       entities.Strategy(m.Kind),
		VoteAllocation: m.VoteAllocation,
		Candidates:     append([]string(nil), m.Candidates...),
		Voters:         append([]string(nil), m.Voters...),
		TokenAddress:   m.TokenAddress,
		FundAmount:     m.FundAmount,
		AnchorTxHash:   m.AnchorTxHash,
		PaidTxHash:     m.PaidTxHash,
		IsActive:       m.IsActive,
		IsPaid:         m.IsPaid,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type voteAttributionModel struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// ballotModel keys uniqueness on the normalized voter so a checksummed and a
// lower-cased address count as the same voter.
type ballotModel struct {
	ID              string                 `gorm:"column:id;primaryKey"`
	ElectionID      string                 `gorm:"column:election_id;uniqueIndex:uq_party_ballots_election_voter,priority:1"`
	VoterKey        string                 `gorm:"column:voter_key;uniqueIndex:uq_party_ballots_election_voter,priority:2"`
	Voter           string                 `gorm:"column:voter"`
	VoteAttribution []voteAttributionModel `gorm:"column:vote_attribution;serializer:json"`
	CreatedAt       time.Time              `gorm:"column:created_at"`
	Election        *electionModel         `gorm:"foreignKey:ElectionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ballotModel) TableName() string {
	return "party_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		ID:              strings.TrimSpace(ballot.BallotID),
		ElectionID:      strings.TrimSpace(ballot.ElectionID),
		VoterKey:        entities.NormalizeIdentity(ballot.Voter),
		Voter:           strings.TrimSpace(ballot.Voter),
		VoteAttribution: make([]voteAttributionModel, 0, len(ballot.VoteAttribution)),
		CreatedAt:       ballot.CreatedAt.UTC(),
	}
	for _, entry := range ballot.VoteAttribution {
		row.VoteAttribution = append(row.VoteAttribution, voteAttributionModel{
			Candidate: entry.Candidate,
			Score:     entry.Score,
		})
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	attribution := make([]entities.VoteAttribution, 0, len(m.VoteAttribution))
	for _, entry := range m.VoteAttribution {
		attribution = append(attribution, entities.VoteAttribution{
			Candidate: entry.Candidate,
			Score:     entry.Score,
		})
	}
	return entities.Ballot{
		BallotID:        m.ID,
		ElectionID:      m.ElectionID,
		Voter:           m.Voter,
		VoteAttribution: attribution,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	ElectionID  string    `gorm:"column:election_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "party_election_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "party_election_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ ports.DocumentStore = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
