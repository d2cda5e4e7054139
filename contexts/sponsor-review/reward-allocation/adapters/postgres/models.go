package postgresadapter

import (
	"encoding/json"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type listingModel struct {
	ID                 string         `gorm:"column:id;primaryKey"`
	SponsorID          string         `gorm:"column:sponsor_id;index"`
	Title              string         `gorm:"column:title"`
	Type               string         `gorm:"column:type"`
	Rewards            datatypes.JSON `gorm:"column:rewards;type:jsonb"`
	MaxBonusSpots      int            `gorm:"column:max_bonus_spots"`
	Deadline           *time.Time     `gorm:"column:deadline"`
	RollingDeadline    bool           `gorm:"column:rolling_deadline"`
	IsWinnersAnnounced bool           `gorm:"column:is_winners_announced"`
	AnnouncedAt        *time.Time     `gorm:"column:announced_at"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "listings"
}

func (m listingModel) toEntity() (entities.Listing, error) {
	rewards := entities.RewardSchedule{}
	if len(m.Rewards) > 0 {
		if err := json.Unmarshal(m.Rewards, &rewards); err != nil {
			return entities.Listing{}, err
		}
	}
	listing := entities.Listing{
		ListingID:          m.ID,
		SponsorID:          m.SponsorID,
		Title:              m.Title,
		Type:               entities.ListingType(m.Type),
		Rewards:            rewards,
		MaxBonusSpots:      m.MaxBonusSpots,
		RollingDeadline:    m.RollingDeadline,
		IsWinnersAnnounced: m.IsWinnersAnnounced,
		AnnouncedAt:        normalizeOptionalTime(m.AnnouncedAt),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
	if m.Deadline != nil {
		listing.Deadline = m.Deadline.UTC()
	}
	return listing, nil
}

func listingModelFromEntity(listing entities.Listing) (listingModel, error) {
	rewards, err := json.Marshal(listing.Rewards)
	if err != nil {
		return listingModel{}, err
	}
	row := listingModel{
		ID:                 listing.ListingID,
		SponsorID:          listing.SponsorID,
		Title:              listing.Title,
		Type:               string(listing.Type),
		Rewards:            datatypes.JSON(rewards),
		MaxBonusSpots:      listing.MaxBonusSpots,
		RollingDeadline:    listing.RollingDeadline,
		IsWinnersAnnounced: listing.IsWinnersAnnounced,
		AnnouncedAt:        normalizeOptionalTime(listing.AnnouncedAt),
		CreatedAt:          listing.CreatedAt.UTC(),
		UpdatedAt:          listing.UpdatedAt.UTC(),
	}
	if !listing.Deadline.IsZero() {
		deadline := listing.Deadline.UTC()
		row.Deadline = &deadline
	}
	return row, nil
}

type candidateModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ListingID      string          `gorm:"column:listing_id;index;uniqueIndex:idx_candidates_podium_slot,where:winner_position <> 99"`
	ApplicantID    string          `gorm:"column:applicant_id"`
	Kind           string          `gorm:"column:kind"`
	Status         string          `gorm:"column:status"`
	Label          string          `gorm:"column:label"`
	IsWinner       bool            `gorm:"column:is_winner"`
	WinnerPosition *int            `gorm:"column:winner_position;uniqueIndex:idx_candidates_podium_slot,where:winner_position <> 99"`
	Ask            decimal.Decimal `gorm:"column:ask;type:numeric(20,2)"`
	ApprovedAmount decimal.Decimal `gorm:"column:approved_amount;type:numeric(20,2)"`
	TotalPaid      decimal.Decimal `gorm:"column:total_paid;type:numeric(20,2)"`
	ReviewedAt     *time.Time      `gorm:"column:reviewed_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "listing_candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		ID:             candidate.CandidateID,
		ListingID:      candidate.ListingID,
		ApplicantID:    candidate.ApplicantID,
		Kind:           string(candidate.Kind),
		Status:         string(candidate.Status),
		Label:          string(candidate.Label),
		IsWinner:       candidate.IsWinner,
		Ask:            candidate.Ask,
		ApprovedAmount: candidate.ApprovedAmount,
		TotalPaid:      candidate.TotalPaid,
		ReviewedAt:     normalizeOptionalTime(candidate.ReviewedAt),
		CreatedAt:      candidate.CreatedAt.UTC(),
		UpdatedAt:      candidate.UpdatedAt.UTC(),
	}
	if candidate.WinnerPosition != entities.NoPosition {
		position := candidate.WinnerPosition
		row.WinnerPosition = &position
	}
	return row
}

func (m candidateModel) toEntity() entities.Candidate {
	candidate := entities.Candidate{
		CandidateID:    m.ID,
		ListingID:      m.ListingID,
		ApplicantID:    m.ApplicantID,
		Kind:           entities.CandidateKind(m.Kind),
		Status:         entities.Status(m.Status),
		Label:          entities.Label(m.Label),
		IsWinner:       m.IsWinner,
		Ask:            m.Ask,
		ApprovedAmount: m.ApprovedAmount,
		TotalPaid:      m.TotalPaid,
		ReviewedAt:     normalizeOptionalTime(m.ReviewedAt),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.WinnerPosition != nil {
		candidate.WinnerPosition = *m.WinnerPosition
	}
	return candidate
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "reward_allocation_idempotency"
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
	return "reward_allocation_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
