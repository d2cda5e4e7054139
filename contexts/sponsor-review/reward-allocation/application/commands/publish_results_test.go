package commands_test

import (
	"context"
	"testing"

	"sponsordesk/contexts/sponsor-review/reward-allocation/application/commands"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application/queries"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	eventsv1 "sponsordesk/contracts/gen/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignPodium(t *testing.T, uc commands.WinnerUseCase, listingID string, candidates []entities.Candidate, positions ...int) {
	t.Helper()
	for i, position := range positions {
		_, err := uc.AssignWinner(context.Background(), commands.AssignWinnerCommand{
			ListingID:   listingID,
			CandidateID: candidates[i].CandidateID,
			ActorID:     "sponsor-1",
			Position:    position,
		})
		require.NoError(t, err)
	}
}

func TestPublishCompletePodiumAnnouncesOnce(t *testing.T) {
	listing := bountyListing("listing-a", 0)
	candidates := candidatesFor("listing-a", 3)
	store := newStore(listing, candidates)
	uc := wire(store, nil, nil)
	ctx := context.Background()

	assignPodium(t, uc.winners, "listing-a", candidates, 1, 2, 3)

	precheck, err := queries.PrecheckUseCase{Listings: store, Candidates: store, Clock: store}.Precheck(ctx, "listing-a")
	require.NoError(t, err)
	assert.True(t, precheck.Completeness.Complete)

	result, err := uc.publish.Publish(ctx, commands.PublishCommand{ListingID: "listing-a", ActorID: "sponsor-1"})
	require.NoError(t, err)
	assert.True(t, result.Listing.IsWinnersAnnounced)
	require.Len(t, result.Winners, 3)
	assert.Equal(t, 1, result.Winners[0].WinnerPosition)

	stored, err := store.GetListing(ctx, "listing-a")
	require.NoError(t, err)
	assert.True(t, stored.IsWinnersAnnounced)
	require.NotNil(t, stored.AnnouncedAt)

	_, err = uc.publish.Publish(ctx, commands.PublishCommand{ListingID: "listing-a", ActorID: "sponsor-1"})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyAnnounced)

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, eventsv1.EventWinnersAnnounced, events[0].EventType)
	assert.Equal(t, "listing-a", events[0].PartitionKey)
}

func TestPublishRefusesIncompletePodium(t *testing.T) {
	listing := bountyListing("listing-b", 0)
	candidates := candidatesFor("listing-b", 3)
	store := newStore(listing, candidates)
	uc := wire(store, nil, nil)

	assignPodium(t, uc.winners, "listing-b", candidates, 1, 2)

	result, err := uc.publish.Publish(context.Background(), commands.PublishCommand{ListingID: "listing-b"})
	require.ErrorIs(t, err, domainerrors.ErrNotComplete)
	assert.Contains(t, err.Error(), "1 of 3 winners remaining")
	assert.Equal(t, 1, result.Completeness.RemainingSlots)

	stored, err := store.GetListing(context.Background(), "listing-b")
	require.NoError(t, err)
	assert.False(t, stored.IsWinnersAnnounced)
	assert.Empty(t, store.OutboxEvents())
}

func TestPublishToleratesUnfillableBonus(t *testing.T) {
	listing := bountyListing("listing-c", 2)
	candidates := candidatesFor("listing-c", 4)
	store := newStore(listing, candidates)
	uc := wire(store, nil, nil)

	assignPodium(t, uc.winners, "listing-c", candidates, 1, 2, 3, entities.BonusPosition)

	result, err := uc.publish.Publish(context.Background(), commands.PublishCommand{ListingID: "listing-c"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "1 of 2 bonus spots cannot be filled", result.Warnings[0].Message)
	assert.Len(t, result.Winners, 4)
}

func TestProjectPublishCompensatesFailedAnnounce(t *testing.T) {
	listing := projectListing("listing-e")
	candidates := candidatesFor("listing-e", 2)
	candidates[0].Label = entities.LabelSpam
	store := newStore(listing, candidates)
	uc := wire(store, nil, failingAnnounce{store})

	winnerID := candidates[0].CandidateID
	_, err := uc.publish.Publish(context.Background(), commands.PublishCommand{
		ListingID:         "listing-e",
		ActorID:           "sponsor-1",
		WinnerCandidateID: winnerID,
	})
	require.ErrorIs(t, err, domainerrors.ErrStoreFailure)
	require.ErrorIs(t, err, errStoreDown)

	winner := candidateByID(t, store, "listing-e", winnerID)
	assert.False(t, winner.IsWinner)
	assert.Equal(t, entities.NoPosition, winner.WinnerPosition)
	assert.Equal(t, entities.LabelSpam, winner.Label)

	stored, err := store.GetListing(context.Background(), "listing-e")
	require.NoError(t, err)
	assert.False(t, stored.IsWinnersAnnounced)
	assert.Empty(t, store.OutboxEvents())
}

func TestProjectPublishAssignsSelectedWinner(t *testing.T) {
	listing := projectListing("listing-p")
	candidates := candidatesFor("listing-p", 2)
	store := newStore(listing, candidates)
	uc := wire(store, nil, nil)
	ctx := context.Background()

	_, err := uc.publish.Publish(ctx, commands.PublishCommand{ListingID: "listing-p"})
	require.ErrorIs(t, err, domainerrors.ErrWinnerRequired)

	result, err := uc.publish.Publish(ctx, commands.PublishCommand{
		ListingID:         "listing-p",
		WinnerCandidateID: candidates[1].CandidateID,
	})
	require.NoError(t, err)
	require.Len(t, result.Winners, 1)
	assert.Equal(t, candidates[1].CandidateID, result.Winners[0].CandidateID)

	winner := candidateByID(t, store, "listing-p", candidates[1].CandidateID)
	assert.True(t, winner.IsWinner)
	assert.Equal(t, 1, winner.WinnerPosition)
}

func TestProjectPublishUsesExistingWinner(t *testing.T) {
	listing := projectListing("listing-q")
	candidates := candidatesFor("listing-q", 2)
	store := newStore(listing, candidates)
	uc := wire(store, nil, nil)

	assignPodium(t, uc.winners, "listing-q", candidates, 1)
	result, err := uc.publish.Publish(context.Background(), commands.PublishCommand{ListingID: "listing-q"})
	require.NoError(t, err)
	assert.True(t, result.Listing.IsWinnersAnnounced)
}

func TestPublishUnknownListing(t *testing.T) {
	store := newStore(bountyListing("listing-z", 0), nil)
	uc := wire(store, nil, nil)

	_, err := uc.publish.Publish(context.Background(), commands.PublishCommand{ListingID: "missing"})
	require.ErrorIs(t, err, domainerrors.ErrListingNotFound)
	_, err = uc.publish.Publish(context.Background(), commands.PublishCommand{})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}
