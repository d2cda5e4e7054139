package commands

import (
	"context"
	"log/slog"
	"strings"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

type AssignWinnerCommand struct {
	ListingID   string
	CandidateID string
	ActorID     string
	Position    int
}

type UnassignWinnerCommand struct {
	ListingID   string
	CandidateID string
	ActorID     string
}

type WinnerResult struct {
	Slot      entities.SlotState
	Candidate entities.Candidate
}

// WinnerUseCase assigns and clears reward slots under the listing token, so
// two sponsors racing for one position cannot both win it.
type WinnerUseCase struct {
	Listings   ports.ListingRepository
	Candidates ports.CandidateStore
	Locks      *application.ListingLocks
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc WinnerUseCase) AssignWinner(ctx context.Context, cmd AssignWinnerCommand) (WinnerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	listingID := strings.TrimSpace(cmd.ListingID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if listingID == "" || candidateID == "" {
		return WinnerResult{}, domainerrors.ErrInvalidRequest
	}

	release, err := uc.Locks.Acquire(ctx, listingID)
	if err != nil {
		return WinnerResult{}, err
	}
	defer release()

	alloc, err := loadAllocator(ctx, uc.Listings, uc.Candidates, listingID, resolveNow(uc.Clock))
	if err != nil {
		return WinnerResult{}, err
	}
	before, _ := alloc.Candidate(candidateID)
	slot, err := alloc.Assign(candidateID, cmd.Position)
	if err != nil {
		logger.Warn("winner assignment rejected",
			"event", "reward_allocation_assign_rejected",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"candidate_id", candidateID,
			"position", cmd.Position,
			"error", err.Error(),
		)
		return WinnerResult{}, err
	}
	candidate, _ := alloc.Candidate(candidateID)
	if before.HoldsSlot() && before.WinnerPosition == cmd.Position {
		return WinnerResult{Slot: slot, Candidate: candidate}, nil
	}
	if err := uc.Candidates.SaveCandidate(ctx, candidate); err != nil {
		logger.Error("winner assignment save failed",
			"event", "reward_allocation_assign_save_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return WinnerResult{}, classifyStoreError("save_candidate", err)
	}

	logger.Info("winner assigned",
		"event", "reward_allocation_winner_assigned",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", listingID,
		"candidate_id", candidateID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"position", slot.Position,
		"previous_position", slot.PreviousPosition,
		"auto_fixed", slot.AutoFixed,
	)
	return WinnerResult{Slot: slot, Candidate: candidate}, nil
}

func (uc WinnerUseCase) UnassignWinner(ctx context.Context, cmd UnassignWinnerCommand) (WinnerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	listingID := strings.TrimSpace(cmd.ListingID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if listingID == "" || candidateID == "" {
		return WinnerResult{}, domainerrors.ErrInvalidRequest
	}

	release, err := uc.Locks.Acquire(ctx, listingID)
	if err != nil {
		return WinnerResult{}, err
	}
	defer release()

	alloc, err := loadAllocator(ctx, uc.Listings, uc.Candidates, listingID, resolveNow(uc.Clock))
	if err != nil {
		return WinnerResult{}, err
	}
	before, _ := alloc.Candidate(candidateID)
	slot, err := alloc.Unassign(candidateID)
	if err != nil {
		logger.Warn("winner unassignment rejected",
			"event", "reward_allocation_unassign_rejected",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return WinnerResult{}, err
	}
	candidate, _ := alloc.Candidate(candidateID)
	if !before.IsWinner && !before.HoldsSlot() {
		return WinnerResult{Slot: slot, Candidate: candidate}, nil
	}
	if err := uc.Candidates.SaveCandidate(ctx, candidate); err != nil {
		logger.Error("winner unassignment save failed",
			"event", "reward_allocation_unassign_save_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return WinnerResult{}, classifyStoreError("save_candidate", err)
	}

	logger.Info("winner unassigned",
		"event", "reward_allocation_winner_unassigned",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", listingID,
		"candidate_id", candidateID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"previous_position", slot.PreviousPosition,
	)
	return WinnerResult{Slot: slot, Candidate: candidate}, nil
}
