package ports

import (
	"context"
	"io"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	eventsv1 "sponsordesk/contracts/gen/events/v1"
	"sponsordesk/internal/shared/outbox"

	"github.com/shopspring/decimal"
)

type ListingRepository interface {
	GetListing(ctx context.Context, listingID string) (entities.Listing, error)
	// MarkWinnersAnnounced flips the announce flag once. A listing that is
	// already announced returns ErrAlreadyAnnounced.
	MarkWinnersAnnounced(ctx context.Context, listingID string, announcedAt time.Time) error
}

// CandidateStore is the durable candidate collection. Its errors are the
// authoritative failure signal for rollback decisions.
type CandidateStore interface {
	ListCandidates(ctx context.Context, listingID string) ([]entities.Candidate, error)
	SaveCandidate(ctx context.Context, candidate entities.Candidate) error
	// SaveCandidates persists every candidate or none of them.
	SaveCandidates(ctx context.Context, candidates []entities.Candidate) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = eventsv1.Envelope

type OutboxMessage = outbox.Message

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	OutboxWriter
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type WinnerRow struct {
	Position    int
	CandidateID string
	ApplicantID string
	Reward      decimal.Decimal
	TotalPaid   decimal.Decimal
}

// WinnerSheetWriter renders a listing's winners as a spreadsheet.
type WinnerSheetWriter interface {
	WriteWinners(w io.Writer, listing entities.Listing, rows []WinnerRow) error
}

// Notification is one message for the external notification dispatcher.
type Notification struct {
	EventID      string
	EventType    string
	ListingID    string
	RecipientIDs []string
	OccurredAt   time.Time
}

type NotificationSender interface {
	Send(ctx context.Context, notification Notification) error
}
