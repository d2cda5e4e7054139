package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	"sponsordesk/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

// AutoMigrate creates or updates the tables this repository owns.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&listingModel{},
		&candidateModel{},
		&idempotencyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("reward_repo_automigrate_failed", err)
	}
	return nil
}

// UpsertListing writes a listing as the sponsor workflow defined it.
func (r *Repository) UpsertListing(ctx context.Context, listing entities.Listing) error {
	row, err := listingModelFromEntity(listing)
	if err != nil {
		return r.logError("reward_repo_upsert_listing_encode_failed", err, "listing_id", listing.ListingID)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sponsor_id", "title", "type", "rewards", "max_bonus_spots",
			"deadline", "rolling_deadline", "updated_at",
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("reward_repo_upsert_listing_failed", create.Error, "listing_id", row.ID)
	}
	return nil
}

func (r *Repository) GetListing(ctx context.Context, listingID string) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(listingID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrListingNotFound
		}
		return entities.Listing{}, r.logError("reward_repo_get_listing_failed", err, "listing_id", strings.TrimSpace(listingID))
	}
	listing, err := row.toEntity()
	if err != nil {
		return entities.Listing{}, r.logError("reward_repo_decode_listing_failed", err, "listing_id", row.ID)
	}
	return listing, nil
}

func (r *Repository) MarkWinnersAnnounced(ctx context.Context, listingID string, announcedAt time.Time) error {
	listingID = strings.TrimSpace(listingID)
	result := r.db.WithContext(ctx).
		Model(&listingModel{}).
		Where("id = ? AND is_winners_announced = ?", listingID, false).
		Updates(map[string]any{
			"is_winners_announced": true,
			"announced_at":         announcedAt.UTC(),
			"updated_at":           announcedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("reward_repo_mark_announced_failed", result.Error, "listing_id", listingID)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&listingModel{}).
		Where("id = ?", listingID).
		Count(&count).Error; err != nil {
		return r.logError("reward_repo_mark_announced_lookup_failed", err, "listing_id", listingID)
	}
	if count == 0 {
		return domainerrors.ErrListingNotFound
	}
	return domainerrors.ErrAlreadyAnnounced
}

func (r *Repository) ListCandidates(ctx context.Context, listingID string) ([]entities.Candidate, error) {
	listingID = strings.TrimSpace(listingID)
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("reward_repo_list_candidates_failed", err, "listing_id", listingID)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	if err := upsertCandidates(r.db.WithContext(ctx), []entities.Candidate{candidate}); err != nil {
		return r.logError("reward_repo_save_candidate_failed", err,
			"listing_id", candidate.ListingID,
			"candidate_id", candidate.CandidateID,
		)
	}
	return nil
}

// SaveCandidates writes a chunk in one transaction.
func (r *Repository) SaveCandidates(ctx context.Context, candidates []entities.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertCandidates(tx, candidates)
	})
	if err != nil {
		return r.logError("reward_repo_save_candidates_failed", err,
			"listing_id", candidates[0].ListingID,
			"candidate_count", len(candidates),
		)
	}
	return nil
}

func upsertCandidates(tx *gorm.DB, candidates []entities.Candidate) error {
	rows := make([]candidateModel, 0, len(candidates))
	for _, candidate := range candidates {
		rows = append(rows, candidateModelFromEntity(candidate))
	}
	create := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "label", "is_winner", "winner_position",
			"approved_amount", "total_paid", "reviewed_at", "updated_at",
		}),
	}).Create(&rows)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return pkgerrors.Wrap(domainerrors.ErrSlotOccupied, create.Error.Error())
		}
		return create.Error
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
		return ports.IdempotencyRecord{}, false, r.logError("reward_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("reward_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("reward_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("reward_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("reward_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
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
		return r.logError("reward_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("reward_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
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
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("reward_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			Status:       row.Status,
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
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("reward_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

// logError logs once at the adapter boundary and annotates the error with
// the failing operation.
func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "sponsor-review/reward-allocation",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("reward allocation repository operation failed", fields...)
	return pkgerrors.WithMessage(err, event)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ListingRepository = (*Repository)(nil)
	_ ports.CandidateStore    = (*Repository)(nil)
	_ ports.IdempotencyStore  = (*Repository)(nil)
	_ ports.OutboxRepository  = (*Repository)(nil)
)
