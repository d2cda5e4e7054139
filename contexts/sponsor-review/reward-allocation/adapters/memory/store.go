package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	"sponsordesk/internal/shared/outbox"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type Store struct {
	mu sync.RWMutex

	listings      map[string]entities.Listing
	candidates    map[string]entities.Candidate
	listingOrder  map[string][]string
	outbox        map[string]ports.OutboxMessage
	outboxOrder   []string
	notifications []ports.Notification
	now           func() time.Time

	idempotency *gocache.Cache
}

// NewStore seeds listings and their candidates. Candidates keep the order
// they are given in.
func NewStore(listings []entities.Listing, candidates []entities.Candidate) *Store {
	s := &Store{
		listings:     make(map[string]entities.Listing, len(listings)),
		candidates:   make(map[string]entities.Candidate, len(candidates)),
		listingOrder: make(map[string][]string),
		outbox:       make(map[string]ports.OutboxMessage),
		now:          func() time.Time { return time.Now().UTC() },
		// No janitor: expired entries are skipped on read.
		idempotency: gocache.New(gocache.NoExpiration, 0),
	}
	for _, listing := range listings {
		s.listings[listing.ListingID] = cloneListing(listing)
	}
	for _, candidate := range candidates {
		s.putCandidate(candidate)
	}
	return s
}

// SetNow pins the store clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fixed := now.UTC()
	s.now = func() time.Time { return fixed }
}

func (s *Store) PutListing(listing entities.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.ListingID] = cloneListing(listing)
}

func (s *Store) PutCandidate(candidate entities.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCandidate(candidate)
}

func (s *Store) GetListing(_ context.Context, listingID string) (entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[strings.TrimSpace(listingID)]
	if !ok {
		return entities.Listing{}, domainerrors.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (s *Store) MarkWinnersAnnounced(_ context.Context, listingID string, announcedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[strings.TrimSpace(listingID)]
	if !ok {
		return domainerrors.ErrListingNotFound
	}
	if listing.IsWinnersAnnounced {
		return domainerrors.ErrAlreadyAnnounced
	}
	at := announcedAt.UTC()
	listing.IsWinnersAnnounced = true
	listing.AnnouncedAt = &at
	listing.UpdatedAt = at
	s.listings[listing.ListingID] = listing
	return nil
}

func (s *Store) ListCandidates(_ context.Context, listingID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listingID = strings.TrimSpace(listingID)
	if _, ok := s.listings[listingID]; !ok {
		return nil, domainerrors.ErrListingNotFound
	}
	order := s.listingOrder[listingID]
	items := make([]entities.Candidate, 0, len(order))
	for _, id := range order {
		items = append(items, cloneCandidate(s.candidates[id]))
	}
	return items, nil
}

func (s *Store) SaveCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[candidate.ListingID]; !ok {
		return domainerrors.ErrListingNotFound
	}
	s.putCandidate(candidate)
	return nil
}

func (s *Store) SaveCandidates(ctx context.Context, candidates []entities.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, candidate := range candidates {
		if _, ok := s.listings[candidate.ListingID]; !ok {
			return domainerrors.ErrListingNotFound
		}
	}
	for _, candidate := range candidates {
		s.putCandidate(candidate)
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	value, ok := s.idempotency.Get(strings.TrimSpace(key))
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	record := value.(ports.IdempotencyRecord)
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt) {
		s.idempotency.Delete(record.Key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	record.Key = strings.TrimSpace(record.Key)
	record.Payload = append([]byte(nil), record.Payload...)
	// Eviction follows the store clock; Get still checks ExpiresAt against
	// the caller's now, so a record is never lost before it expires.
	ttl := gocache.NoExpiration
	if !record.ExpiresAt.IsZero() {
		if remaining := record.ExpiresAt.Sub(s.Now()); remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.idempotency.Add(record.Key, record, ttl); err != nil {
		value, ok := s.idempotency.Get(record.Key)
		if ok && value.(ports.IdempotencyRecord).RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		s.idempotency.Set(record.Key, record, ttl)
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(envelope.EventID)
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.outbox[id]; exists {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	s.outboxOrder = append(s.outboxOrder, id)
	s.outbox[id] = ports.OutboxMessage{
		OutboxID:     id,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    createdAt,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, id := range s.outboxOrder {
		row := s.outbox[id]
		if row.Status == outbox.StatusPending {
			row.Payload = append([]byte(nil), row.Payload...)
			items = append(items, row)
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidRequest
	}
	at := publishedAt.UTC()
	row.Status = outbox.StatusPublished
	row.PublishedAt = &at
	s.outbox[row.OutboxID] = row
	return nil
}

// OutboxEvents returns every appended envelope in append order.
func (s *Store) OutboxEvents() []ports.EventEnvelope {
	s.mu.RLock()
	rows := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		rows = append(rows, s.outbox[id])
	}
	s.mu.RUnlock()
	events := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err == nil {
			events = append(events, event)
		}
	}
	return events
}

func (s *Store) Send(_ context.Context, notification ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification.RecipientIDs = append([]string(nil), notification.RecipientIDs...)
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *Store) Notifications() []ports.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Notification(nil), s.notifications...)
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) putCandidate(candidate entities.Candidate) {
	candidate = cloneCandidate(candidate)
	if _, exists := s.candidates[candidate.CandidateID]; !exists {
		s.listingOrder[candidate.ListingID] = append(s.listingOrder[candidate.ListingID], candidate.CandidateID)
	}
	s.candidates[candidate.CandidateID] = candidate
}

func cloneListing(listing entities.Listing) entities.Listing {
	rewards := make(entities.RewardSchedule, len(listing.Rewards))
	for position, amount := range listing.Rewards {
		rewards[position] = amount
	}
	listing.Rewards = rewards
	if listing.AnnouncedAt != nil {
		at := *listing.AnnouncedAt
		listing.AnnouncedAt = &at
	}
	return listing
}

func cloneCandidate(candidate entities.Candidate) entities.Candidate {
	if candidate.ReviewedAt != nil {
		at := *candidate.ReviewedAt
		candidate.ReviewedAt = &at
	}
	return candidate
}
