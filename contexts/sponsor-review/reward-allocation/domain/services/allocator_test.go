package services

import (
	"testing"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignRejectsSecondPodiumOccupant(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(3), testNow)

	state, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-01"}, state.Occupants)
	assert.Equal(t, entities.NoPosition, state.PreviousPosition)

	_, err = alloc.Assign("cand-02", 1)
	require.ErrorIs(t, err, domainerrors.ErrSlotOccupied)

	count, capacity := alloc.Occupancy(1)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, capacity)
}

func TestAssignEnforcesBonusQuota(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 2, 50), pendingCandidates(4), testNow)

	_, err := alloc.Assign("cand-01", entities.BonusPosition)
	require.NoError(t, err)
	_, err = alloc.Assign("cand-02", entities.BonusPosition)
	require.NoError(t, err)
	_, err = alloc.Assign("cand-03", entities.BonusPosition)
	require.ErrorIs(t, err, domainerrors.ErrQuotaExceeded)

	count, capacity := alloc.Occupancy(entities.BonusPosition)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, capacity)

	// re-assigning a current bonus holder does not count against the quota
	_, err = alloc.Assign("cand-02", entities.BonusPosition)
	require.NoError(t, err)
}

func TestAssignMovesCandidateBetweenPositions(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(2), testNow)

	_, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	state, err := alloc.Assign("cand-01", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, state.PreviousPosition)
	assert.Empty(t, alloc.Occupants(1))
	assert.Equal(t, []string{"cand-01"}, alloc.Occupants(2))

	_, err = alloc.Assign("cand-02", 1)
	require.NoError(t, err)
}

func TestAssignValidatesCandidateAndPosition(t *testing.T) {
	candidates := pendingCandidates(2)
	candidates[1].Status = entities.StatusRejected
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), candidates, testNow)

	_, err := alloc.Assign("missing", 1)
	require.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)
	_, err = alloc.Assign("cand-02", 1)
	require.ErrorIs(t, err, domainerrors.ErrCandidateTerminal)
	_, err = alloc.Assign("cand-01", 4)
	require.ErrorIs(t, err, domainerrors.ErrInvalidPosition)
	_, err = alloc.Assign("cand-01", entities.BonusPosition)
	require.ErrorIs(t, err, domainerrors.ErrInvalidPosition)
}

func TestAssignRefusedAfterAnnouncement(t *testing.T) {
	listing := podiumListing(entities.ListingTypeBounty, 0, 0)
	listing.IsWinnersAnnounced = true
	alloc := NewAllocator(listing, pendingCandidates(1), testNow)

	_, err := alloc.Assign("cand-01", 1)
	require.ErrorIs(t, err, domainerrors.ErrListingAnnounced)
	_, err = alloc.Unassign("cand-01")
	require.ErrorIs(t, err, domainerrors.ErrListingAnnounced)
}

func TestAssignIsIdempotent(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(2), testNow)

	_, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	once := alloc.Candidates()

	state, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.PreviousPosition)
	if diff := cmp.Diff(once, alloc.Candidates()); diff != "" {
		t.Fatalf("second assign changed state (-once +twice):\n%s", diff)
	}
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(2), testNow)
	before, _ := alloc.Candidate("cand-01")

	_, err := alloc.Assign("cand-01", 2)
	require.NoError(t, err)
	state, err := alloc.Unassign("cand-01")
	require.NoError(t, err)
	assert.Equal(t, 2, state.PreviousPosition)

	after, _ := alloc.Candidate("cand-01")
	assert.Equal(t, before.IsWinner, after.IsWinner)
	assert.Equal(t, before.WinnerPosition, after.WinnerPosition)
	count, _ := alloc.Occupancy(2)
	assert.Zero(t, count)
}

func TestUnassignWithoutSlotIsNoop(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(1), testNow)
	before := alloc.Candidates()

	state, err := alloc.Unassign("cand-01")
	require.NoError(t, err)
	assert.Equal(t, entities.NoPosition, state.Position)
	if diff := cmp.Diff(before, alloc.Candidates()); diff != "" {
		t.Fatalf("unassign mutated candidate:\n%s", diff)
	}

	_, err = alloc.Unassign("missing")
	require.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)
}

func TestAssignAutoFixesSpamLabel(t *testing.T) {
	candidates := pendingCandidates(1)
	candidates[0].Label = entities.LabelSpam
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), candidates, testNow)

	state, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	assert.True(t, state.AutoFixed)

	candidate, _ := alloc.Candidate("cand-01")
	assert.Equal(t, entities.LabelUnreviewed, candidate.Label)
	assert.True(t, candidate.IsWinner)
}

func TestSlotTableNeverExceedsCapacity(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeHackathon, 2, 25), pendingCandidates(8), testNow)
	attempts := []struct {
		id       string
		position int
	}{
		{"cand-01", 1}, {"cand-02", 1}, {"cand-03", 2}, {"cand-04", 99},
		{"cand-05", 99}, {"cand-06", 99}, {"cand-02", 3}, {"cand-07", 3},
		{"cand-03", 1}, {"cand-08", 2},
	}
	for _, attempt := range attempts {
		_, _ = alloc.Assign(attempt.id, attempt.position)
		for _, slot := range alloc.Slots() {
			require.LessOrEqual(t, len(slot.Occupants), slot.Capacity, "position %d", slot.Position)
		}
	}

	slots := alloc.Slots()
	require.Len(t, slots, 4)
	assert.Equal(t, entities.BonusPosition, slots[3].Position)
	assert.True(t, slots[3].Full())
}

func TestNewAllocatorCopiesAndDedupes(t *testing.T) {
	candidates := pendingCandidates(2)
	candidates = append(candidates, candidates[0])
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), candidates, testNow)
	require.Len(t, alloc.Candidates(), 2)

	_, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	assert.False(t, candidates[0].IsWinner)
}

func TestRestoreOverwritesWorkingCopy(t *testing.T) {
	alloc := NewAllocator(podiumListing(entities.ListingTypeBounty, 0, 0), pendingCandidates(2), testNow)
	snapshot := alloc.Candidates()

	_, err := alloc.Assign("cand-01", 1)
	require.NoError(t, err)
	alloc.Restore(snapshot)

	if diff := cmp.Diff(snapshot, alloc.Candidates()); diff != "" {
		t.Fatalf("restore did not rewind state:\n%s", diff)
	}
}
