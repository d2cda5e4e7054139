package notify

import (
	"context"
	"log/slog"

	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

// LogSender hands notifications to the log stream that the mail relay tails.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, notification ports.Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reward notification dispatched",
		"event", "reward_allocation_notification_dispatched",
		"module", "sponsor-review/reward-allocation",
		"layer", "adapter",
		"event_id", notification.EventID,
		"event_type", notification.EventType,
		"listing_id", notification.ListingID,
		"recipient_count", len(notification.RecipientIDs),
	)
	return nil
}
