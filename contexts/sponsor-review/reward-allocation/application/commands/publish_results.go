package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	eventsv1 "sponsordesk/contracts/gen/events/v1"
)

const projectWinnerPosition = 1

type PublishCommand struct {
	ListingID string
	ActorID   string
	// WinnerCandidateID selects the single winner of a project listing.
	WinnerCandidateID string
}

type PublishResult struct {
	Listing      entities.Listing
	Completeness services.Completeness
	Warnings     []services.Warning
	Winners      []entities.Candidate
}

// PublishUseCase performs the one-way announce transition. Project listings
// assign their winner and announce in two phases; a failed announce undoes
// the assignment so the listing stays in its pre-publish state.
type PublishUseCase struct {
	Listings     ports.ListingRepository
	Candidates   ports.CandidateStore
	Outbox       ports.OutboxWriter
	Locks        *application.ListingLocks
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	RepairWindow time.Duration
	Logger       *slog.Logger
}

func (uc PublishUseCase) Publish(ctx context.Context, cmd PublishCommand) (PublishResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	listingID := strings.TrimSpace(cmd.ListingID)
	if listingID == "" {
		return PublishResult{}, domainerrors.ErrInvalidRequest
	}

	release, err := uc.Locks.Acquire(ctx, listingID)
	if err != nil {
		return PublishResult{}, err
	}
	defer release()

	now := resolveNow(uc.Clock)
	alloc, err := loadAllocator(ctx, uc.Listings, uc.Candidates, listingID, now)
	if err != nil {
		return PublishResult{}, err
	}
	listing := alloc.Listing()
	if listing.IsWinnersAnnounced {
		return PublishResult{}, domainerrors.ErrAlreadyAnnounced
	}

	var phaseA *entities.Candidate
	if listing.Type == entities.ListingTypeProject {
		winnerID := strings.TrimSpace(cmd.WinnerCandidateID)
		if winnerID == "" && len(alloc.Occupants(projectWinnerPosition)) == 0 {
			return PublishResult{}, domainerrors.ErrWinnerRequired
		}
		if winnerID != "" {
			before, ok := alloc.Candidate(winnerID)
			if !ok {
				return PublishResult{}, domainerrors.ErrCandidateNotFound
			}
			slot, err := alloc.Assign(winnerID, projectWinnerPosition)
			if err != nil {
				return PublishResult{}, err
			}
			if slot.PreviousPosition != projectWinnerPosition {
				phaseA = &before
			}
		}
	}

	completeness, warnings := services.Precheck(listing, alloc.Candidates(), now)
	result := PublishResult{Listing: listing, Completeness: completeness, Warnings: warnings}
	if !completeness.Complete {
		logger.Warn("publish refused with open slots",
			"event", "reward_allocation_publish_not_complete",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"required_slots", completeness.RequiredSlots,
			"filled_slots", completeness.FilledSlots,
			"remaining_slots", completeness.RemainingSlots,
		)
		return result, fmt.Errorf("%w: %d of %d winners remaining",
			domainerrors.ErrNotComplete, completeness.RemainingSlots, completeness.RequiredSlots)
	}

	if phaseA != nil {
		winner, _ := alloc.Candidate(phaseA.CandidateID)
		if err := uc.Candidates.SaveCandidate(ctx, winner); err != nil {
			logger.Error("publish winner assignment save failed",
				"event", "reward_allocation_publish_assign_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "application",
				"listing_id", listingID,
				"candidate_id", winner.CandidateID,
				"error", err.Error(),
			)
			return PublishResult{}, classifyStoreError("save_candidate", err)
		}
	}

	if err := uc.Listings.MarkWinnersAnnounced(ctx, listingID, now); err != nil {
		logger.Error("publish announce failed",
			"event", "reward_allocation_publish_announce_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"error", err.Error(),
		)
		if phaseA != nil {
			uc.compensate(ctx, alloc, *phaseA)
		}
		if errors.Is(err, domainerrors.ErrAlreadyAnnounced) {
			return PublishResult{}, err
		}
		return PublishResult{}, classifyStoreError("mark_winners_announced", err)
	}

	announcedAt := now
	listing.IsWinnersAnnounced = true
	listing.AnnouncedAt = &announcedAt
	result.Listing = listing
	result.Winners = winnersOf(alloc.Candidates())
	sort.SliceStable(result.Winners, func(i, j int) bool {
		return result.Winners[i].WinnerPosition < result.Winners[j].WinnerPosition
	})

	uc.notifyAnnounced(ctx, cmd, result, alloc.Candidates(), now)
	logger.Info("listing winners announced",
		"event", "reward_allocation_winners_announced",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", listingID,
		"listing_type", string(listing.Type),
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"winner_count", len(result.Winners),
		"warning_count", len(result.Warnings),
	)
	return result, nil
}

// compensate undoes the project winner assignment after a failed announce.
// It runs detached from the caller's cancellation.
func (uc PublishUseCase) compensate(ctx context.Context, alloc *services.Allocator, before entities.Candidate) {
	logger := application.ResolveLogger(uc.Logger)
	window := uc.RepairWindow
	if window <= 0 {
		window = 5 * time.Second
	}
	repairCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), window)
	defer cancel()

	if _, err := alloc.Unassign(before.CandidateID); err != nil {
		logger.Error("publish compensation unassign failed",
			"event", "reward_allocation_publish_compensation_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", before.ListingID,
			"candidate_id", before.CandidateID,
			"error", err.Error(),
		)
		return
	}
	if current, _ := alloc.Candidate(before.CandidateID); current.Label != before.Label {
		alloc.Restore([]entities.Candidate{before})
	}
	restored, _ := alloc.Candidate(before.CandidateID)
	if err := uc.Candidates.SaveCandidate(repairCtx, restored); err != nil {
		logger.Error("publish compensation save failed",
			"event", "reward_allocation_publish_compensation_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", before.ListingID,
			"candidate_id", before.CandidateID,
			"error", err.Error(),
		)
		return
	}
	logger.Info("publish winner assignment compensated",
		"event", "reward_allocation_publish_compensated",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", before.ListingID,
		"candidate_id", before.CandidateID,
	)
}

func (uc PublishUseCase) notifyAnnounced(
	ctx context.Context,
	cmd PublishCommand,
	result PublishResult,
	candidates []entities.Candidate,
	now time.Time,
) {
	winners := make([]eventsv1.WinnerData, 0, len(result.Winners))
	for _, winner := range result.Winners {
		winners = append(winners, eventsv1.WinnerData{
			CandidateID: winner.CandidateID,
			ApplicantID: winner.ApplicantID,
			Position:    winner.WinnerPosition,
		})
	}
	spamCount := 0
	for _, candidate := range candidates {
		if candidate.Label == entities.LabelSpam {
			spamCount++
		}
	}
	n := notifier{outbox: uc.Outbox, idGen: uc.IDGen, logger: uc.Logger}
	n.notify(ctx, eventsv1.EventWinnersAnnounced, result.Listing.ListingID, now, eventsv1.WinnersAnnouncedData{
		ListingID:   result.Listing.ListingID,
		ListingType: string(result.Listing.Type),
		ActorID:     strings.TrimSpace(cmd.ActorID),
		AnnouncedAt: now,
		Winners:     winners,
		SpamCount:   spamCount,
	})
}
