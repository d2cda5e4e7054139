package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows and marks each row
// published only after the bus accepts it. It stops on the first failure so
// the next cycle retries the remaining rows in order.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("reward outbox list failed",
			"event", "reward_allocation_outbox_list_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("reward outbox relay found no pending rows",
			"event", "reward_allocation_outbox_relay_noop",
			"module", "sponsor-review/reward-allocation",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("reward outbox decode failed",
				"event", "reward_allocation_outbox_decode_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("reward outbox publish failed",
				"event", "reward_allocation_outbox_publish_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("reward outbox mark published failed",
				"event", "reward_allocation_outbox_mark_published_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("reward outbox relay cycle completed",
		"event", "reward_allocation_outbox_relay_completed",
		"module", "sponsor-review/reward-allocation",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
