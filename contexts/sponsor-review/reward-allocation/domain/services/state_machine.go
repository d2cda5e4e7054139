package services

import (
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"

	"github.com/shopspring/decimal"
)

// StateMachine applies review transitions to candidates held by an
// Allocator so slot release and label rules share one choke point.
//
//	bounty, project, hackathon: pending -> rejected
//	grant:                      pending -> approved | rejected, approved -> completed
type StateMachine struct {
	alloc *Allocator
}

func NewStateMachine(alloc *Allocator) StateMachine {
	return StateMachine{alloc: alloc}
}

func (m StateMachine) Reject(candidateID string) error {
	if m.alloc.listing.IsWinnersAnnounced {
		return domainerrors.ErrListingAnnounced
	}
	candidate, err := m.lookup(candidateID)
	if err != nil {
		return err
	}
	if candidate.Status != entities.StatusPending {
		return domainerrors.ErrInvalidTransition
	}
	if candidate.HoldsSlot() || candidate.IsWinner {
		m.alloc.release(candidate)
	}
	candidate.Status = entities.StatusRejected
	m.markReviewed(candidate)
	return nil
}

func (m StateMachine) MarkSpam(candidateID string) error {
	candidate, err := m.lookup(candidateID)
	if err != nil {
		return err
	}
	if candidate.Status.Terminal() {
		return domainerrors.ErrInvalidTransition
	}
	if candidate.IsWinner {
		return domainerrors.ErrWinnerSpamConflict
	}
	if candidate.Label == entities.LabelSpam {
		return nil
	}
	candidate.Label = entities.LabelSpam
	now := m.alloc.now
	candidate.ReviewedAt = &now
	candidate.UpdatedAt = now
	return nil
}

func (m StateMachine) Approve(candidateID string, approvedAmount decimal.Decimal) error {
	candidate, err := m.lookup(candidateID)
	if err != nil {
		return err
	}
	if m.alloc.listing.Type != entities.ListingTypeGrant {
		return domainerrors.ErrInvalidTransition
	}
	if !approvedAmount.IsPositive() {
		return domainerrors.ErrInvalidAmount
	}
	if candidate.Status != entities.StatusPending {
		return domainerrors.ErrInvalidTransition
	}
	candidate.Status = entities.StatusApproved
	candidate.ApprovedAmount = approvedAmount
	m.markReviewed(candidate)
	return nil
}

func (m StateMachine) Complete(candidateID string) error {
	candidate, err := m.lookup(candidateID)
	if err != nil {
		return err
	}
	if m.alloc.listing.Type != entities.ListingTypeGrant {
		return domainerrors.ErrInvalidTransition
	}
	if candidate.Status != entities.StatusApproved {
		return domainerrors.ErrInvalidTransition
	}
	if candidate.HoldsSlot() || candidate.IsWinner {
		m.alloc.release(candidate)
	}
	candidate.Status = entities.StatusCompleted
	candidate.UpdatedAt = m.alloc.now
	return nil
}

// RecordPayment adds a payment to a winner or an approved grant application.
// It reports whether the payment completed the grant.
func (m StateMachine) RecordPayment(candidateID string, amount decimal.Decimal) (bool, error) {
	candidate, err := m.lookup(candidateID)
	if err != nil {
		return false, err
	}
	if !amount.IsPositive() {
		return false, domainerrors.ErrInvalidAmount
	}

	if m.alloc.listing.Type == entities.ListingTypeGrant {
		if candidate.Status != entities.StatusApproved {
			return false, domainerrors.ErrInvalidTransition
		}
		candidate.TotalPaid = candidate.TotalPaid.Add(amount)
		candidate.UpdatedAt = m.alloc.now
		if candidate.TotalPaid.GreaterThanOrEqual(candidate.ApprovedAmount) {
			if err := m.Complete(candidateID); err != nil {
				return false, err
			}
			return true, nil
		}
		return false, nil
	}

	if !candidate.HoldsSlot() {
		return false, domainerrors.ErrInvalidTransition
	}
	candidate.TotalPaid = candidate.TotalPaid.Add(amount)
	candidate.UpdatedAt = m.alloc.now
	return false, nil
}

func (m StateMachine) lookup(candidateID string) (*entities.Candidate, error) {
	candidate, ok := m.alloc.candidates[candidateID]
	if !ok {
		return nil, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (m StateMachine) markReviewed(candidate *entities.Candidate) {
	now := m.alloc.now
	if candidate.Label.Untouched() {
		candidate.Label = entities.LabelReviewed
	}
	candidate.ReviewedAt = &now
	candidate.UpdatedAt = now
}
