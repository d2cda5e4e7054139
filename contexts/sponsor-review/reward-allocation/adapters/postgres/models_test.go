package postgresadapter

import (
	"fmt"
	"testing"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingModelRoundTrip(t *testing.T) {
	announced := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	listing := entities.Listing{
		ListingID: "listing-1",
		SponsorID: "sponsor-1",
		Title:     "Audit bounty",
		Type:      entities.ListingTypeBounty,
		Rewards: entities.RewardSchedule{
			1:                      decimal.NewFromInt(1000),
			entities.BonusPosition: decimal.NewFromInt(25),
		},
		MaxBonusSpots:      3,
		Deadline:           announced.Add(-time.Hour),
		IsWinnersAnnounced: true,
		AnnouncedAt:        &announced,
		CreatedAt:          announced.Add(-72 * time.Hour),
		UpdatedAt:          announced,
	}

	row, err := listingModelFromEntity(listing)
	require.NoError(t, err)
	got, err := row.toEntity()
	require.NoError(t, err)

	decimalEqual := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(listing, got, decimalEqual); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestListingWithoutDeadlineStoresNull(t *testing.T) {
	row, err := listingModelFromEntity(entities.Listing{ListingID: "listing-2", RollingDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, row.Deadline)

	got, err := row.toEntity()
	require.NoError(t, err)
	assert.True(t, got.Deadline.IsZero())
	assert.Empty(t, got.Rewards)
}

func TestCandidateWithoutPositionStoresNull(t *testing.T) {
	row := candidateModelFromEntity(entities.Candidate{
		CandidateID: "c-1",
		ListingID:   "listing-1",
		Status:      entities.StatusPending,
	})
	assert.Nil(t, row.WinnerPosition)
	assert.Equal(t, entities.NoPosition, row.toEntity().WinnerPosition)

	winner := candidateModelFromEntity(entities.Candidate{
		CandidateID:    "c-2",
		ListingID:      "listing-1",
		IsWinner:       true,
		WinnerPosition: entities.BonusPosition,
		TotalPaid:      decimal.RequireFromString("12.50"),
	})
	require.NotNil(t, winner.WinnerPosition)
	back := winner.toEntity()
	assert.Equal(t, entities.BonusPosition, back.WinnerPosition)
	assert.True(t, back.TotalPaid.Equal(decimal.RequireFromString("12.5")))
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(wrapped))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain")))
}
