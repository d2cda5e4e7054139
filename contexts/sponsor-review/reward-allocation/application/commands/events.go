package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

func newListingEnvelope(
	eventID string,
	eventType string,
	listingID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "reward-allocation",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "listing_id",
		PartitionKey:     listingID,
		Data:             payload,
	}, nil
}

// notifier appends notification events after a change is durable. Failures
// are logged and never reach the caller.
type notifier struct {
	outbox ports.OutboxWriter
	idGen  ports.IDGenerator
	logger *slog.Logger
}

func (n notifier) notify(ctx context.Context, eventType string, listingID string, occurredAt time.Time, data any) {
	if n.outbox == nil || n.idGen == nil {
		return
	}
	logger := application.ResolveLogger(n.logger)
	eventID, err := n.idGen.NewID(ctx)
	if err != nil {
		logger.Error("reward notification id generation failed",
			"event", "reward_allocation_notify_id_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"event_type", eventType,
			"error", err.Error(),
		)
		return
	}
	envelope, err := newListingEnvelope(eventID, eventType, listingID, occurredAt, data)
	if err != nil {
		logger.Error("reward notification encode failed",
			"event", "reward_allocation_notify_encode_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"event_type", eventType,
			"error", err.Error(),
		)
		return
	}
	if err := n.outbox.AppendOutbox(ctx, envelope); err != nil {
		logger.Warn("reward notification dropped",
			"event", "reward_allocation_notify_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"event_id", eventID,
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
