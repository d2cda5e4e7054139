package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

type PrecheckResult struct {
	Listing      entities.Listing
	Completeness services.Completeness
	Warnings     []services.Warning
}

// PrecheckUseCase is the read side of the publish gate.
type PrecheckUseCase struct {
	Listings   ports.ListingRepository
	Candidates ports.CandidateStore
	Clock      ports.Clock
}

func (uc PrecheckUseCase) Precheck(ctx context.Context, listingID string) (PrecheckResult, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return PrecheckResult{}, domainerrors.ErrInvalidRequest
	}
	listing, candidates, err := loadListing(ctx, uc.Listings, uc.Candidates, listingID)
	if err != nil {
		return PrecheckResult{}, err
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	completeness, warnings := services.Precheck(listing, candidates, now)
	return PrecheckResult{
		Listing:      listing,
		Completeness: completeness,
		Warnings:     warnings,
	}, nil
}

func loadListing(
	ctx context.Context,
	listings ports.ListingRepository,
	store ports.CandidateStore,
	listingID string,
) (entities.Listing, []entities.Candidate, error) {
	listing, err := listings.GetListing(ctx, listingID)
	if err != nil {
		return entities.Listing{}, nil, wrapStoreError("get_listing", err)
	}
	candidates, err := store.ListCandidates(ctx, listingID)
	if err != nil {
		return entities.Listing{}, nil, wrapStoreError("list_candidates", err)
	}
	return listing, candidates, nil
}

func wrapStoreError(op string, err error) error {
	if errors.Is(err, domainerrors.ErrListingNotFound) || errors.Is(err, domainerrors.ErrStoreFailure) {
		return err
	}
	return domainerrors.StoreFailure(op, err)
}
