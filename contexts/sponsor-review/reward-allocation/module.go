package rewardallocation

import (
	"log/slog"
	"time"

	httpadapter "sponsordesk/contexts/sponsor-review/reward-allocation/adapters/http"
	"sponsordesk/contexts/sponsor-review/reward-allocation/adapters/memory"
	xlsxadapter "sponsordesk/contexts/sponsor-review/reward-allocation/adapters/xlsx"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application/commands"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application/queries"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Listings       ports.ListingRepository
	Candidates     ports.CandidateStore
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Sheets         ports.WinnerSheetWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	BatchChunkSize int
	ChunkTimeout   time.Duration
	IdempotencyTTL time.Duration
	RepairWindow   time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	logger := application.ResolveLogger(deps.Logger)
	locks := application.NewListingLocks()
	sheets := deps.Sheets
	if sheets == nil {
		sheets = xlsxadapter.WinnerSheetWriter{Logger: logger}
	}

	return Module{
		Handler: httpadapter.Handler{
			Winners: commands.WinnerUseCase{
				Listings:   deps.Listings,
				Candidates: deps.Candidates,
				Locks:      locks,
				Clock:      deps.Clock,
				Logger:     logger,
			},
			Reviews: commands.ReviewUseCase{
				Listings:   deps.Listings,
				Candidates: deps.Candidates,
				Outbox:     deps.Outbox,
				Locks:      locks,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     logger,
			},
			Batches: commands.BatchTransitionUseCase{
				Listings:       deps.Listings,
				Candidates:     deps.Candidates,
				Outbox:         deps.Outbox,
				Idempotency:    deps.Idempotency,
				Locks:          locks,
				Clock:          deps.Clock,
				IDGen:          deps.IDGenerator,
				ChunkSize:      deps.BatchChunkSize,
				ChunkTimeout:   deps.ChunkTimeout,
				IdempotencyTTL: deps.IdempotencyTTL,
				Logger:         logger,
			},
			Publish: commands.PublishUseCase{
				Listings:     deps.Listings,
				Candidates:   deps.Candidates,
				Outbox:       deps.Outbox,
				Locks:        locks,
				Clock:        deps.Clock,
				IDGen:        deps.IDGenerator,
				RepairWindow: deps.RepairWindow,
				Logger:       logger,
			},
			Precheck: queries.PrecheckUseCase{
				Listings:   deps.Listings,
				Candidates: deps.Candidates,
				Clock:      deps.Clock,
			},
			Queries: queries.ListingQueryUseCase{
				Listings:   deps.Listings,
				Candidates: deps.Candidates,
				Sheets:     sheets,
			},
			Logger: logger,
		},
	}
}

// NewInMemoryModule wires every port to one seeded memory store.
func NewInMemoryModule(listings []entities.Listing, candidates []entities.Candidate, logger *slog.Logger) Module {
	store := memory.NewStore(listings, candidates)
	module := NewModule(Dependencies{
		Listings:       store,
		Candidates:     store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
