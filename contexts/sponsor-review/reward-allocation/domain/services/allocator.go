package services

import (
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"

	mapset "github.com/deckarep/golang-set"
)

// Allocator owns the position to occupant mapping for one listing. It works
// on a private copy of the candidate set; callers persist the candidates it
// returns.
type Allocator struct {
	listing    entities.Listing
	order      []string
	candidates map[string]*entities.Candidate
	now        time.Time
}

func NewAllocator(listing entities.Listing, candidates []entities.Candidate, now time.Time) *Allocator {
	a := &Allocator{
		listing:    listing,
		order:      make([]string, 0, len(candidates)),
		candidates: make(map[string]*entities.Candidate, len(candidates)),
		now:        now.UTC(),
	}
	for _, candidate := range candidates {
		if _, exists := a.candidates[candidate.CandidateID]; exists {
			continue
		}
		item := candidate
		a.order = append(a.order, item.CandidateID)
		a.candidates[item.CandidateID] = &item
	}
	return a
}

func (a *Allocator) Listing() entities.Listing {
	return a.listing
}

func (a *Allocator) Candidate(candidateID string) (entities.Candidate, bool) {
	candidate, ok := a.candidates[candidateID]
	if !ok {
		return entities.Candidate{}, false
	}
	return *candidate, true
}

// Candidates returns the working set in its original order.
func (a *Allocator) Candidates() []entities.Candidate {
	items := make([]entities.Candidate, 0, len(a.order))
	for _, id := range a.order {
		items = append(items, *a.candidates[id])
	}
	return items
}

// Restore overwrites working candidates with earlier copies.
func (a *Allocator) Restore(snapshot []entities.Candidate) {
	for _, candidate := range snapshot {
		if _, ok := a.candidates[candidate.CandidateID]; !ok {
			continue
		}
		item := candidate
		a.candidates[item.CandidateID] = &item
	}
}

func (a *Allocator) Assign(candidateID string, position int) (entities.SlotState, error) {
	if a.listing.IsWinnersAnnounced {
		return entities.SlotState{}, domainerrors.ErrListingAnnounced
	}
	candidate, ok := a.candidates[candidateID]
	if !ok {
		return entities.SlotState{}, domainerrors.ErrCandidateNotFound
	}
	if candidate.Status.Terminal() {
		return entities.SlotState{}, domainerrors.ErrCandidateTerminal
	}
	capacity, ok := a.listing.Capacity(position)
	if !ok {
		return entities.SlotState{}, domainerrors.ErrInvalidPosition
	}
	if candidate.HoldsSlot() && candidate.WinnerPosition == position {
		return a.slotState(candidateID, position, position, false), nil
	}

	others := a.occupantSet(position, candidateID)
	if position == entities.BonusPosition {
		if others.Cardinality() >= capacity {
			return entities.SlotState{}, domainerrors.ErrQuotaExceeded
		}
	} else if others.Cardinality() > 0 {
		return entities.SlotState{}, domainerrors.ErrSlotOccupied
	}

	previous := entities.NoPosition
	if candidate.HoldsSlot() {
		previous = candidate.WinnerPosition
	}
	candidate.IsWinner = true
	candidate.WinnerPosition = position
	autoFixed := false
	if candidate.Label == entities.LabelSpam {
		candidate.Label = entities.LabelUnreviewed
		autoFixed = true
	}
	candidate.UpdatedAt = a.now
	return a.slotState(candidateID, position, previous, autoFixed), nil
}

// Unassign clears the candidate's slot. A candidate without a slot is left
// untouched and the call still succeeds.
func (a *Allocator) Unassign(candidateID string) (entities.SlotState, error) {
	if a.listing.IsWinnersAnnounced {
		return entities.SlotState{}, domainerrors.ErrListingAnnounced
	}
	candidate, ok := a.candidates[candidateID]
	if !ok {
		return entities.SlotState{}, domainerrors.ErrCandidateNotFound
	}
	if !candidate.HoldsSlot() && !candidate.IsWinner {
		return entities.SlotState{CandidateID: candidateID, Position: entities.NoPosition}, nil
	}
	previous := a.release(candidate)
	return a.slotState(candidateID, previous, previous, false), nil
}

// Occupancy reports how many candidates hold the position and its capacity.
func (a *Allocator) Occupancy(position int) (int, int) {
	capacity, ok := a.listing.Capacity(position)
	if !ok {
		return 0, 0
	}
	return a.occupantSet(position, "").Cardinality(), capacity
}

// Occupants lists the holders of a position in candidate order.
func (a *Allocator) Occupants(position int) []string {
	occupants := make([]string, 0)
	for _, id := range a.order {
		candidate := a.candidates[id]
		if candidate.HoldsSlot() && candidate.WinnerPosition == position {
			occupants = append(occupants, id)
		}
	}
	return occupants
}

// Slots returns the full slot table: podium positions first, bonus last.
func (a *Allocator) Slots() []entities.Slot {
	positions := a.listing.Rewards.PodiumPositions()
	if _, ok := a.listing.Capacity(entities.BonusPosition); ok {
		positions = append(positions, entities.BonusPosition)
	}
	slots := make([]entities.Slot, 0, len(positions))
	for _, position := range positions {
		capacity, _ := a.listing.Capacity(position)
		slots = append(slots, entities.Slot{
			Position:  position,
			Capacity:  capacity,
			Reward:    a.listing.Rewards.AmountFor(position),
			Occupants: a.Occupants(position),
		})
	}
	return slots
}

func (a *Allocator) release(candidate *entities.Candidate) int {
	previous := candidate.WinnerPosition
	candidate.IsWinner = false
	candidate.WinnerPosition = entities.NoPosition
	candidate.UpdatedAt = a.now
	return previous
}

func (a *Allocator) occupantSet(position int, exclude string) mapset.Set {
	occupants := mapset.NewThreadUnsafeSet()
	for _, id := range a.order {
		if id == exclude {
			continue
		}
		candidate := a.candidates[id]
		if candidate.HoldsSlot() && candidate.WinnerPosition == position {
			occupants.Add(id)
		}
	}
	return occupants
}

func (a *Allocator) slotState(candidateID string, position int, previous int, autoFixed bool) entities.SlotState {
	capacity, _ := a.listing.Capacity(position)
	return entities.SlotState{
		CandidateID:      candidateID,
		Position:         position,
		PreviousPosition: previous,
		Capacity:         capacity,
		Occupants:        a.Occupants(position),
		AutoFixed:        autoFixed,
	}
}
