package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/adapters/memory"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	eventsv1 "sponsordesk/contracts/gen/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relayNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	topics []string
	failOn int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.failOn > 0 && len(p.topics)+1 == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func appendEvent(t *testing.T, store *memory.Store, id, eventType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:      id,
		EventType:    eventType,
		PartitionKey: "listing-1",
		OccurredAt:   relayNow,
		Data:         raw,
	}))
}

func TestOutboxRelayStopsAtFirstFailureAndResumes(t *testing.T) {
	store := memory.NewStore(nil, nil)
	store.SetNow(relayNow)
	appendEvent(t, store, "evt-1", eventsv1.EventCandidateRejected, eventsv1.CandidateRejectedData{ApplicantID: "user-1"})
	appendEvent(t, store, "evt-2", eventsv1.EventCandidateMarkedSpam, eventsv1.CandidateMarkedSpamData{ApplicantID: "user-2"})
	appendEvent(t, store, "evt-3", eventsv1.EventCandidateApproved, eventsv1.CandidateApprovedData{ApplicantID: "user-3"})

	publisher := &recordingPublisher{failOn: 2}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	require.Error(t, relay.RunOnce(context.Background()))
	assert.Equal(t, []string{eventsv1.EventCandidateRejected}, publisher.topics)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "evt-2", pending[0].OutboxID)

	publisher.failOn = 0
	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Equal(t, []string{
		eventsv1.EventCandidateRejected,
		eventsv1.EventCandidateMarkedSpam,
		eventsv1.EventCandidateApproved,
	}, publisher.topics)

	pending, err = store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Len(t, publisher.topics, 3)
}

func TestOutboxRelayRespectsBatchSize(t *testing.T) {
	store := memory.NewStore(nil, nil)
	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		appendEvent(t, store, id, eventsv1.EventCandidateRejected, eventsv1.CandidateRejectedData{})
	}
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 2}

	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Len(t, publisher.topics, 2)
}

func TestDispatcherNotifiesApplicants(t *testing.T) {
	store := memory.NewStore(nil, nil)
	dispatcher := NotificationDispatcher{Sender: store}

	announced, err := json.Marshal(eventsv1.WinnersAnnouncedData{
		ListingID: "listing-1",
		Winners: []eventsv1.WinnerData{
			{CandidateID: "c-1", ApplicantID: "user-1", Position: 1},
			{CandidateID: "c-2", ApplicantID: "", Position: 2},
			{CandidateID: "c-3", ApplicantID: "user-3", Position: 99},
		},
	})
	require.NoError(t, err)
	rejected, err := json.Marshal(eventsv1.CandidateRejectedData{ApplicantID: "user-9"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, dispatcher.Handle(ctx, ports.EventEnvelope{
		EventID:      "evt-a",
		EventType:    eventsv1.EventWinnersAnnounced,
		PartitionKey: "listing-1",
		Data:         announced,
	}))
	require.NoError(t, dispatcher.Handle(ctx, ports.EventEnvelope{
		EventID:   "evt-r",
		EventType: eventsv1.EventCandidateRejected,
		Data:      rejected,
	}))
	require.NoError(t, dispatcher.Handle(ctx, ports.EventEnvelope{
		EventID:   "evt-empty",
		EventType: eventsv1.EventCandidateApproved,
		Data:      []byte(`{}`),
	}))
	require.Error(t, dispatcher.Handle(ctx, ports.EventEnvelope{
		EventID:   "evt-bad",
		EventType: eventsv1.EventCandidateRejected,
		Data:      []byte(`not json`),
	}))

	sent := store.Notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"user-1", "user-3"}, sent[0].RecipientIDs)
	assert.Equal(t, "listing-1", sent[0].ListingID)
	assert.Equal(t, []string{"user-9"}, sent[1].RecipientIDs)
}
