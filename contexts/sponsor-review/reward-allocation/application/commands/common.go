package commands

import (
	"context"
	"errors"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

// loadAllocator builds the working view of one listing from the stores.
func loadAllocator(
	ctx context.Context,
	listings ports.ListingRepository,
	candidates ports.CandidateStore,
	listingID string,
	now time.Time,
) (*services.Allocator, error) {
	listing, err := listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, classifyStoreError("get_listing", err)
	}
	items, err := candidates.ListCandidates(ctx, listingID)
	if err != nil {
		return nil, classifyStoreError("list_candidates", err)
	}
	return services.NewAllocator(listing, items, now), nil
}

func classifyStoreError(op string, err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrListingNotFound),
		errors.Is(err, domainerrors.ErrCandidateNotFound),
		errors.Is(err, domainerrors.ErrAlreadyAnnounced),
		errors.Is(err, domainerrors.ErrStoreFailure):
		return err
	default:
		return domainerrors.StoreFailure(op, err)
	}
}

// ReasonCode maps an error to the short code reported per candidate.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domainerrors.ErrStoreFailure):
		return "store_failure"
	case errors.Is(err, domainerrors.ErrCandidateNotFound):
		return "candidate_not_found"
	case errors.Is(err, domainerrors.ErrWinnerSpamConflict):
		return "winner_spam_conflict"
	case errors.Is(err, domainerrors.ErrListingAnnounced):
		return "listing_announced"
	case errors.Is(err, domainerrors.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal_error"
	}
}

func winnersOf(candidates []entities.Candidate) []entities.Candidate {
	winners := make([]entities.Candidate, 0)
	for _, candidate := range candidates {
		if candidate.HoldsSlot() {
			winners = append(winners, candidate)
		}
	}
	return winners
}
