package messaging

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

const memberBuffer = 128

// Kafka is the event bus used by the outbox relay and the notification
// dispatcher. Delivery is in-process and follows consumer-group semantics:
// every group sees each event once, members of a group share the load.
// Broker addresses are kept for the external client.
type Kafka struct {
	mu        sync.Mutex
	brokers   []string
	topics    map[string]map[string]*consumerGroup
	consumers sync.WaitGroup
	logger    *slog.Logger
}

type consumerGroup struct {
	members []chan ports.EventEnvelope
	next    int
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: append([]string(nil), brokers...),
		topics:  make(map[string]map[string]*consumerGroup),
		logger:  logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

// Publish hands the event to one member of every group subscribed to topic.
// It never blocks on a full member: the next member is tried, and when the
// whole group is saturated the event is dropped for that group.
func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	groups := k.topics[topic]
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	delivered := 0
	for _, name := range names {
		if k.deliver(groups[name], event) {
			delivered++
			continue
		}
		k.logger.Warn("dropping event for saturated consumer group",
			"event", "kafka_publish_drop",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", name,
			"event_id", event.EventID,
		)
	}
	k.mu.Unlock()

	k.logger.Info("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"consumer_groups", delivered,
	)
	return nil
}

// deliver must be called with k.mu held.
func (k *Kafka) deliver(group *consumerGroup, event ports.EventEnvelope) bool {
	for attempt := 0; attempt < len(group.members); attempt++ {
		member := group.members[group.next%len(group.members)]
		group.next++
		select {
		case member <- event:
			return true
		default:
		}
	}
	return false
}

// Subscribe joins consumerGroup on topic and runs handler for every event
// routed to this member until ctx is cancelled.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	member := make(chan ports.EventEnvelope, memberBuffer)
	k.join(topic, consumerGroup, member)

	k.consumers.Add(1)
	go func() {
		defer k.consumers.Done()
		for {
			select {
			case <-ctx.Done():
				k.leave(topic, consumerGroup, member)
				return
			case event := <-member:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Wait blocks until every consumer started by Subscribe has returned.
func (k *Kafka) Wait() {
	k.consumers.Wait()
}

func (k *Kafka) join(topic, name string, member chan ports.EventEnvelope) {
	k.mu.Lock()
	defer k.mu.Unlock()
	groups, ok := k.topics[topic]
	if !ok {
		groups = make(map[string]*consumerGroup)
		k.topics[topic] = groups
	}
	group, ok := groups[name]
	if !ok {
		group = &consumerGroup{}
		groups[name] = group
	}
	group.members = append(group.members, member)
}

func (k *Kafka) leave(topic, name string, member chan ports.EventEnvelope) {
	k.mu.Lock()
	defer k.mu.Unlock()
	group := k.topics[topic][name]
	if group == nil {
		return
	}
	kept := group.members[:0]
	for _, item := range group.members {
		if item != member {
			kept = append(kept, item)
		}
	}
	group.members = kept
	if len(kept) > 0 {
		return
	}
	delete(k.topics[topic], name)
	if len(k.topics[topic]) == 0 {
		delete(k.topics, topic)
	}
}
