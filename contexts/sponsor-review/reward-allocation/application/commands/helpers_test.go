package commands_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/adapters/memory"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application/commands"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testNow       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	errStoreDown  = errors.New("candidate store unavailable")
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func bountyListing(id string, maxBonus int) entities.Listing {
	rewards := entities.RewardSchedule{
		1: decimal.NewFromInt(500),
		2: decimal.NewFromInt(300),
		3: decimal.NewFromInt(200),
	}
	if maxBonus > 0 {
		rewards[entities.BonusPosition] = decimal.NewFromInt(50)
	}
	return entities.Listing{
		ListingID:     id,
		SponsorID:     "sponsor-1",
		Type:          entities.ListingTypeBounty,
		Rewards:       rewards,
		MaxBonusSpots: maxBonus,
		Deadline:      testNow.Add(-time.Hour),
	}
}

func projectListing(id string) entities.Listing {
	return entities.Listing{
		ListingID: id,
		SponsorID: "sponsor-1",
		Type:      entities.ListingTypeProject,
		Rewards:   entities.RewardSchedule{1: decimal.NewFromInt(2000)},
		Deadline:  testNow.Add(-time.Hour),
	}
}

func candidatesFor(listingID string, n int) []entities.Candidate {
	items := make([]entities.Candidate, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, entities.Candidate{
			CandidateID: fmt.Sprintf("%s-cand-%02d", listingID, i),
			ListingID:   listingID,
			ApplicantID: fmt.Sprintf("user-%02d", i),
			Kind:        entities.CandidateKindApplication,
			Status:      entities.StatusPending,
			Label:       entities.LabelUnreviewed,
		})
	}
	return items
}

func ids(candidates []entities.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, candidate.CandidateID)
	}
	return out
}

func newStore(listing entities.Listing, candidates []entities.Candidate) *memory.Store {
	store := memory.NewStore([]entities.Listing{listing}, candidates)
	store.SetNow(testNow)
	return store
}

type useCases struct {
	winners commands.WinnerUseCase
	reviews commands.ReviewUseCase
	batches commands.BatchTransitionUseCase
	publish commands.PublishUseCase
}

// wire builds every use case on one lock registry. The candidate store and
// listing repository can be swapped for failing wrappers.
func wire(store *memory.Store, candidates ports.CandidateStore, listings ports.ListingRepository) useCases {
	if candidates == nil {
		candidates = store
	}
	if listings == nil {
		listings = store
	}
	locks := application.NewListingLocks()
	return useCases{
		winners: commands.WinnerUseCase{
			Listings: listings, Candidates: candidates, Locks: locks, Clock: store, Logger: discardLogger,
		},
		reviews: commands.ReviewUseCase{
			Listings: listings, Candidates: candidates, Outbox: store, Locks: locks,
			Clock: store, IDGen: store, Logger: discardLogger,
		},
		batches: commands.BatchTransitionUseCase{
			Listings: listings, Candidates: candidates, Outbox: store, Idempotency: store,
			Locks: locks, Clock: store, IDGen: store, ChunkSize: 10, Logger: discardLogger,
		},
		publish: commands.PublishUseCase{
			Listings: listings, Candidates: candidates, Outbox: store, Locks: locks,
			Clock: store, IDGen: store, RepairWindow: time.Second, Logger: discardLogger,
		},
	}
}

// flakyCandidates fails SaveCandidates on the configured call number and
// counts single saves.
type flakyCandidates struct {
	*memory.Store

	mu         sync.Mutex
	failOnCall int
	batchCalls int
	saveCalls  int
	onBatch    func(call int)
}

func (f *flakyCandidates) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	f.mu.Lock()
	f.saveCalls++
	f.mu.Unlock()
	return f.Store.SaveCandidate(ctx, candidate)
}

func (f *flakyCandidates) SaveCandidates(ctx context.Context, candidates []entities.Candidate) error {
	f.mu.Lock()
	f.batchCalls++
	call := f.batchCalls
	f.mu.Unlock()
	if f.onBatch != nil {
		f.onBatch(call)
	}
	if call == f.failOnCall {
		return errStoreDown
	}
	return f.Store.SaveCandidates(ctx, candidates)
}

func (f *flakyCandidates) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

// failingAnnounce refuses to flip the announced flag.
type failingAnnounce struct {
	*memory.Store
}

func (failingAnnounce) MarkWinnersAnnounced(context.Context, string, time.Time) error {
	return errStoreDown
}

func candidateByID(t *testing.T, store *memory.Store, listingID string, candidateID string) entities.Candidate {
	t.Helper()
	items, err := store.ListCandidates(context.Background(), listingID)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	for _, item := range items {
		if item.CandidateID == candidateID {
			return item
		}
	}
	t.Fatalf("candidate %s not found", candidateID)
	return entities.Candidate{}
}
