package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	eventsv1 "sponsordesk/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

type CandidateCommand struct {
	ListingID   string
	CandidateID string
	ActorID     string
}

type ApproveCommand struct {
	ListingID      string
	CandidateID    string
	ActorID        string
	ApprovedAmount decimal.Decimal
}

type RecordPaymentCommand struct {
	ListingID   string
	CandidateID string
	ActorID     string
	Amount      decimal.Decimal
}

type RecordPaymentResult struct {
	Candidate entities.Candidate
	Completed bool
}

// ReviewUseCase runs single-candidate review transitions.
type ReviewUseCase struct {
	Listings   ports.ListingRepository
	Candidates ports.CandidateStore
	Outbox     ports.OutboxWriter
	Locks      *application.ListingLocks
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ReviewUseCase) Reject(ctx context.Context, cmd CandidateCommand) (entities.Candidate, error) {
	candidate, now, _, err := uc.transition(ctx, "reject", cmd, func(sm services.StateMachine) error {
		return sm.Reject(strings.TrimSpace(cmd.CandidateID))
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	uc.notifier().notify(ctx, eventsv1.EventCandidateRejected, candidate.ListingID, now, eventsv1.CandidateRejectedData{
		ListingID:   candidate.ListingID,
		CandidateID: candidate.CandidateID,
		ApplicantID: candidate.ApplicantID,
		ActorID:     strings.TrimSpace(cmd.ActorID),
	})
	return candidate, nil
}

func (uc ReviewUseCase) MarkSpam(ctx context.Context, cmd CandidateCommand) (entities.Candidate, error) {
	candidate, now, changed, err := uc.transition(ctx, "mark_spam", cmd, func(sm services.StateMachine) error {
		return sm.MarkSpam(strings.TrimSpace(cmd.CandidateID))
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	if !changed {
		return candidate, nil
	}
	uc.notifier().notify(ctx, eventsv1.EventCandidateMarkedSpam, candidate.ListingID, now, eventsv1.CandidateMarkedSpamData{
		ListingID:   candidate.ListingID,
		CandidateID: candidate.CandidateID,
		ApplicantID: candidate.ApplicantID,
		ActorID:     strings.TrimSpace(cmd.ActorID),
	})
	return candidate, nil
}

func (uc ReviewUseCase) Approve(ctx context.Context, cmd ApproveCommand) (entities.Candidate, error) {
	base := CandidateCommand{ListingID: cmd.ListingID, CandidateID: cmd.CandidateID, ActorID: cmd.ActorID}
	candidate, now, _, err := uc.transition(ctx, "approve", base, func(sm services.StateMachine) error {
		return sm.Approve(strings.TrimSpace(cmd.CandidateID), cmd.ApprovedAmount)
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	uc.notifier().notify(ctx, eventsv1.EventCandidateApproved, candidate.ListingID, now, eventsv1.CandidateApprovedData{
		ListingID:      candidate.ListingID,
		CandidateID:    candidate.CandidateID,
		ApplicantID:    candidate.ApplicantID,
		ApprovedAmount: candidate.ApprovedAmount.String(),
		ActorID:        strings.TrimSpace(cmd.ActorID),
	})
	return candidate, nil
}

func (uc ReviewUseCase) Complete(ctx context.Context, cmd CandidateCommand) (entities.Candidate, error) {
	candidate, _, _, err := uc.transition(ctx, "complete", cmd, func(sm services.StateMachine) error {
		return sm.Complete(strings.TrimSpace(cmd.CandidateID))
	})
	return candidate, err
}

func (uc ReviewUseCase) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (RecordPaymentResult, error) {
	completed := false
	base := CandidateCommand{ListingID: cmd.ListingID, CandidateID: cmd.CandidateID, ActorID: cmd.ActorID}
	candidate, _, _, err := uc.transition(ctx, "record_payment", base, func(sm services.StateMachine) error {
		done, err := sm.RecordPayment(strings.TrimSpace(cmd.CandidateID), cmd.Amount)
		completed = done
		return err
	})
	if err != nil {
		return RecordPaymentResult{}, err
	}
	return RecordPaymentResult{Candidate: candidate, Completed: completed}, nil
}

// transition loads the listing under its token, applies one state machine
// step and saves the candidate. Nothing is written when the step fails or
// leaves the candidate as it was; changed reports which happened.
func (uc ReviewUseCase) transition(
	ctx context.Context,
	action string,
	cmd CandidateCommand,
	apply func(services.StateMachine) error,
) (entities.Candidate, time.Time, bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	listingID := strings.TrimSpace(cmd.ListingID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if listingID == "" || candidateID == "" {
		return entities.Candidate{}, time.Time{}, false, domainerrors.ErrInvalidRequest
	}

	release, err := uc.Locks.Acquire(ctx, listingID)
	if err != nil {
		return entities.Candidate{}, time.Time{}, false, err
	}
	defer release()

	now := resolveNow(uc.Clock)
	alloc, err := loadAllocator(ctx, uc.Listings, uc.Candidates, listingID, now)
	if err != nil {
		return entities.Candidate{}, time.Time{}, false, err
	}
	before, _ := alloc.Candidate(candidateID)
	if err := apply(services.NewStateMachine(alloc)); err != nil {
		logger.Warn("candidate review transition rejected",
			"event", "reward_allocation_review_rejected",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"action", action,
			"listing_id", listingID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return entities.Candidate{}, time.Time{}, false, err
	}

	candidate, _ := alloc.Candidate(candidateID)
	if sameReviewState(before, candidate) {
		logger.Debug("candidate review transition was a no-op",
			"event", "reward_allocation_review_noop",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"action", action,
			"listing_id", listingID,
			"candidate_id", candidateID,
		)
		return candidate, now, false, nil
	}
	if err := uc.Candidates.SaveCandidate(ctx, candidate); err != nil {
		logger.Error("candidate review save failed",
			"event", "reward_allocation_review_save_failed",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"action", action,
			"listing_id", listingID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return entities.Candidate{}, time.Time{}, false, classifyStoreError("save_candidate", err)
	}

	logger.Info("candidate review transition applied",
		"event", "reward_allocation_review_applied",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"action", action,
		"listing_id", listingID,
		"candidate_id", candidateID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"status", string(candidate.Status),
		"label", string(candidate.Label),
	)
	return candidate, now, true, nil
}

func (uc ReviewUseCase) notifier() notifier {
	return notifier{outbox: uc.Outbox, idGen: uc.IDGen, logger: uc.Logger}
}

func sameReviewState(a, b entities.Candidate) bool {
	return a.Status == b.Status &&
		a.Label == b.Label &&
		a.IsWinner == b.IsWinner &&
		a.WinnerPosition == b.WinnerPosition &&
		a.ApprovedAmount.Equal(b.ApprovedAmount) &&
		a.TotalPaid.Equal(b.TotalPaid)
}
