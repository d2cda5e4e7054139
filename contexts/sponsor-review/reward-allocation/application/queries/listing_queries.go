package queries

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
)

type ListingQueryUseCase struct {
	Listings   ports.ListingRepository
	Candidates ports.CandidateStore
	Sheets     ports.WinnerSheetWriter
}

type SlotTable struct {
	Listing entities.Listing
	Slots   []entities.Slot
}

func (uc ListingQueryUseCase) ListCandidates(ctx context.Context, listingID string) ([]entities.Candidate, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	_, candidates, err := loadListing(ctx, uc.Listings, uc.Candidates, listingID)
	return candidates, err
}

func (uc ListingQueryUseCase) ListSlots(ctx context.Context, listingID string) (SlotTable, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return SlotTable{}, domainerrors.ErrInvalidRequest
	}
	listing, candidates, err := loadListing(ctx, uc.Listings, uc.Candidates, listingID)
	if err != nil {
		return SlotTable{}, err
	}
	alloc := services.NewAllocator(listing, candidates, time.Time{})
	return SlotTable{Listing: listing, Slots: alloc.Slots()}, nil
}

// Winners returns slot holders ordered by position, bonus spots last.
func (uc ListingQueryUseCase) Winners(ctx context.Context, listingID string) (entities.Listing, []ports.WinnerRow, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return entities.Listing{}, nil, domainerrors.ErrInvalidRequest
	}
	listing, candidates, err := loadListing(ctx, uc.Listings, uc.Candidates, listingID)
	if err != nil {
		return entities.Listing{}, nil, err
	}
	rows := make([]ports.WinnerRow, 0)
	for _, candidate := range candidates {
		if !candidate.HoldsSlot() {
			continue
		}
		rows = append(rows, ports.WinnerRow{
			Position:    candidate.WinnerPosition,
			CandidateID: candidate.CandidateID,
			ApplicantID: candidate.ApplicantID,
			Reward:      listing.Rewards.AmountFor(candidate.WinnerPosition),
			TotalPaid:   candidate.TotalPaid,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position < rows[j].Position
	})
	return listing, rows, nil
}

func (uc ListingQueryUseCase) ExportWinners(ctx context.Context, listingID string, w io.Writer) error {
	if uc.Sheets == nil {
		return domainerrors.ErrInvalidRequest
	}
	listing, rows, err := uc.Winners(ctx, listingID)
	if err != nil {
		return err
	}
	return uc.Sheets.WriteWinners(w, listing, rows)
}
