package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	eventsv1 "sponsordesk/contracts/gen/events/v1"
)

// NotificationTopics are the events that reach candidates or sponsors.
var NotificationTopics = []string{
	eventsv1.EventCandidateRejected,
	eventsv1.EventCandidateMarkedSpam,
	eventsv1.EventCandidateApproved,
	eventsv1.EventWinnersAnnounced,
}

// NotificationDispatcher turns published review events into notifications.
type NotificationDispatcher struct {
	Subscriber    ports.EventSubscriber
	Sender        ports.NotificationSender
	ConsumerGroup string
	Logger        *slog.Logger
}

func (d NotificationDispatcher) Start(ctx context.Context) error {
	group := d.ConsumerGroup
	if group == "" {
		group = "reward-allocation-notifications-cg"
	}
	for _, topic := range NotificationTopics {
		if err := d.Subscriber.Subscribe(ctx, topic, group, d.Handle); err != nil {
			return err
		}
	}
	return nil
}

func (d NotificationDispatcher) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(d.Logger)
	recipients, err := recipientsOf(event)
	if err != nil {
		logger.Error("reward notification decode failed",
			"event", "reward_allocation_notification_decode_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if len(recipients) == 0 {
		return nil
	}
	return d.Sender.Send(ctx, ports.Notification{
		EventID:      event.EventID,
		EventType:    event.EventType,
		ListingID:    event.PartitionKey,
		RecipientIDs: recipients,
		OccurredAt:   event.OccurredAt,
	})
}

func recipientsOf(event ports.EventEnvelope) ([]string, error) {
	switch event.EventType {
	case eventsv1.EventWinnersAnnounced:
		var data eventsv1.WinnersAnnouncedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, err
		}
		recipients := make([]string, 0, len(data.Winners))
		for _, winner := range data.Winners {
			if winner.ApplicantID != "" {
				recipients = append(recipients, winner.ApplicantID)
			}
		}
		return recipients, nil
	default:
		var data struct {
			ApplicantID string `json:"applicant_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, err
		}
		if data.ApplicantID == "" {
			return nil, nil
		}
		return []string{data.ApplicantID}, nil
	}
}
