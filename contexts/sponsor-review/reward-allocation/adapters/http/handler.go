package httpadapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/application/commands"
	"sponsordesk/contexts/sponsor-review/reward-allocation/application/queries"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	httptransport "sponsordesk/contexts/sponsor-review/reward-allocation/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	Winners  commands.WinnerUseCase
	Reviews  commands.ReviewUseCase
	Batches  commands.BatchTransitionUseCase
	Publish  commands.PublishUseCase
	Precheck queries.PrecheckUseCase
	Queries  queries.ListingQueryUseCase
	Logger   *slog.Logger
}

func (h Handler) ListCandidatesHandler(ctx context.Context, listingID string) (httptransport.CandidateListResponse, error) {
	items, err := h.Queries.ListCandidates(ctx, listingID)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	resp := httptransport.CandidateListResponse{
		ListingID: listingID,
		Items:     make([]httptransport.CandidateResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toCandidateDTO(item))
	}
	return resp, nil
}

func (h Handler) ListSlotsHandler(ctx context.Context, listingID string) (httptransport.SlotTableResponse, error) {
	table, err := h.Queries.ListSlots(ctx, listingID)
	if err != nil {
		return httptransport.SlotTableResponse{}, err
	}
	resp := httptransport.SlotTableResponse{
		ListingID:          table.Listing.ListingID,
		IsWinnersAnnounced: table.Listing.IsWinnersAnnounced,
		Slots:              make([]httptransport.SlotResponse, 0, len(table.Slots)),
	}
	for _, slot := range table.Slots {
		resp.Slots = append(resp.Slots, httptransport.SlotResponse{
			Position:  slot.Position,
			Bonus:     slot.Position == entities.BonusPosition,
			Capacity:  slot.Capacity,
			Reward:    slot.Reward.StringFixed(2),
			Occupants: nonNil(slot.Occupants),
			Full:      slot.Full(),
		})
	}
	return resp, nil
}

func (h Handler) AssignWinnerHandler(
	ctx context.Context,
	listingID string,
	actorID string,
	req httptransport.AssignWinnerRequest,
) (httptransport.WinnerResponse, error) {
	candidateID := strings.TrimSpace(req.CandidateID)
	if candidateID == "" {
		return httptransport.WinnerResponse{}, fmt.Errorf("%w: candidate_id is required", domainerrors.ErrInvalidRequest)
	}
	result, err := h.Winners.AssignWinner(ctx, commands.AssignWinnerCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
		Position:    req.Position,
	})
	if err != nil {
		return httptransport.WinnerResponse{}, err
	}
	return toWinnerDTO(result), nil
}

func (h Handler) UnassignWinnerHandler(
	ctx context.Context,
	listingID string,
	candidateID string,
	actorID string,
) (httptransport.WinnerResponse, error) {
	result, err := h.Winners.UnassignWinner(ctx, commands.UnassignWinnerCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.WinnerResponse{}, err
	}
	return toWinnerDTO(result), nil
}

func (h Handler) RejectHandler(ctx context.Context, listingID string, candidateID string, actorID string) (httptransport.CandidateResponse, error) {
	candidate, err := h.Reviews.Reject(ctx, commands.CandidateCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return toCandidateDTO(candidate), nil
}

func (h Handler) MarkSpamHandler(ctx context.Context, listingID string, candidateID string, actorID string) (httptransport.CandidateResponse, error) {
	candidate, err := h.Reviews.MarkSpam(ctx, commands.CandidateCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return toCandidateDTO(candidate), nil
}

func (h Handler) ApproveHandler(
	ctx context.Context,
	listingID string,
	candidateID string,
	actorID string,
	req httptransport.ApproveRequest,
) (httptransport.CandidateResponse, error) {
	amount, err := parseAmount(req.ApprovedAmount, true)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	candidate, err := h.Reviews.Approve(ctx, commands.ApproveCommand{
		ListingID:      listingID,
		CandidateID:    candidateID,
		ActorID:        actorID,
		ApprovedAmount: amount,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return toCandidateDTO(candidate), nil
}

func (h Handler) CompleteHandler(ctx context.Context, listingID string, candidateID string, actorID string) (httptransport.CandidateResponse, error) {
	candidate, err := h.Reviews.Complete(ctx, commands.CandidateCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return toCandidateDTO(candidate), nil
}

func (h Handler) RecordPaymentHandler(
	ctx context.Context,
	listingID string,
	candidateID string,
	actorID string,
	req httptransport.PaymentRequest,
) (httptransport.PaymentResponse, error) {
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	result, err := h.Reviews.RecordPayment(ctx, commands.RecordPaymentCommand{
		ListingID:   listingID,
		CandidateID: candidateID,
		ActorID:     actorID,
		Amount:      amount,
	})
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	return httptransport.PaymentResponse{
		Candidate: toCandidateDTO(result.Candidate),
		Completed: result.Completed,
	}, nil
}

func (h Handler) BatchHandler(
	ctx context.Context,
	listingID string,
	actorID string,
	idempotencyKey string,
	req httptransport.BatchRequest,
) (httptransport.BatchResponse, error) {
	result, err := h.Batches.Execute(ctx, commands.BatchTransitionCommand{
		ListingID:           listingID,
		ActorID:             actorID,
		IdempotencyKey:      idempotencyKey,
		Transition:          commands.BatchTransition(strings.TrimSpace(req.Transition)),
		CandidateIDs:        req.CandidateIDs,
		ChunkSize:           req.ChunkSize,
		SelectedCandidateID: req.SelectedCandidateID,
	})
	if err != nil {
		return httptransport.BatchResponse{}, err
	}
	resp := httptransport.BatchResponse{
		Requested:           result.Requested,
		Succeeded:           nonNil(result.Succeeded),
		Failed:              make([]httptransport.BatchFailureResponse, 0, len(result.Failed)),
		Skipped:             nonNil(result.Skipped),
		ChunksConfirmed:     result.ChunksConfirmed,
		Halted:              result.Halted,
		SelectedCandidateID: result.SelectedCandidateID,
		Replayed:            result.Replayed,
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, httptransport.BatchFailureResponse{
			CandidateID: failure.CandidateID,
			Reason:      failure.Reason,
		})
	}
	resp.Summary = fmt.Sprintf("%d of %d candidates updated", len(result.Succeeded), result.Requested)
	if result.Halted {
		resp.Summary += ", batch halted"
	}
	return resp, nil
}

func (h Handler) PrecheckHandler(ctx context.Context, listingID string) (httptransport.PrecheckResponse, error) {
	result, err := h.Precheck.Precheck(ctx, listingID)
	if err != nil {
		return httptransport.PrecheckResponse{}, err
	}
	c := result.Completeness
	return httptransport.PrecheckResponse{
		ListingID:       result.Listing.ListingID,
		Complete:        c.Complete,
		RequiredSlots:   c.RequiredSlots,
		FilledSlots:     c.FilledSlots,
		RemainingSlots:  c.RemainingSlots,
		OpenBonusSpots:  c.OpenBonusSpots,
		UnfillableBonus: c.UnfillableBonus,
		Warnings:        toWarningDTOs(result.Warnings),
	}, nil
}

func (h Handler) PublishHandler(
	ctx context.Context,
	listingID string,
	actorID string,
	req httptransport.PublishRequest,
) (httptransport.PublishResponse, error) {
	result, err := h.Publish.Publish(ctx, commands.PublishCommand{
		ListingID:         listingID,
		ActorID:           actorID,
		WinnerCandidateID: strings.TrimSpace(req.WinnerCandidateID),
	})
	if err != nil {
		return httptransport.PublishResponse{}, err
	}
	resp := httptransport.PublishResponse{
		ListingID:          result.Listing.ListingID,
		IsWinnersAnnounced: result.Listing.IsWinnersAnnounced,
		Winners:            make([]httptransport.CandidateResponse, 0, len(result.Winners)),
		Warnings:           toWarningDTOs(result.Warnings),
	}
	if result.Listing.AnnouncedAt != nil {
		announcedAt := result.Listing.AnnouncedAt.UTC()
		resp.AnnouncedAt = &announcedAt
	}
	for _, winner := range result.Winners {
		resp.Winners = append(resp.Winners, toCandidateDTO(winner))
	}
	return resp, nil
}

func (h Handler) ExportWinnersHandler(ctx context.Context, listingID string, w io.Writer) error {
	return h.Queries.ExportWinners(ctx, listingID, w)
}

func parseAmount(raw string, allowZero bool) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domainerrors.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domainerrors.ErrInvalidAmount, raw)
	}
	if amount.IsNegative() || (!allowZero && amount.IsZero()) {
		return decimal.Zero, fmt.Errorf("%w: %s", domainerrors.ErrInvalidAmount, amount.String())
	}
	return amount, nil
}

func toCandidateDTO(candidate entities.Candidate) httptransport.CandidateResponse {
	resp := httptransport.CandidateResponse{
		CandidateID:    candidate.CandidateID,
		ListingID:      candidate.ListingID,
		ApplicantID:    candidate.ApplicantID,
		Kind:           string(candidate.Kind),
		Status:         string(candidate.Status),
		Label:          string(candidate.Label),
		IsWinner:       candidate.IsWinner,
		WinnerPosition: candidate.WinnerPosition,
		Ask:            candidate.Ask.StringFixed(2),
		ApprovedAmount: candidate.ApprovedAmount.StringFixed(2),
		TotalPaid:      candidate.TotalPaid.StringFixed(2),
	}
	if candidate.ReviewedAt != nil {
		reviewedAt := candidate.ReviewedAt.UTC().Truncate(time.Second)
		resp.ReviewedAt = &reviewedAt
	}
	return resp
}

func toWinnerDTO(result commands.WinnerResult) httptransport.WinnerResponse {
	return httptransport.WinnerResponse{
		Slot: httptransport.SlotStateResponse{
			CandidateID:      result.Slot.CandidateID,
			Position:         result.Slot.Position,
			PreviousPosition: result.Slot.PreviousPosition,
			Capacity:         result.Slot.Capacity,
			Occupants:        nonNil(result.Slot.Occupants),
			AutoFixed:        result.Slot.AutoFixed,
		},
		Candidate: toCandidateDTO(result.Candidate),
	}
}

func toWarningDTOs(warnings []services.Warning) []httptransport.WarningResponse {
	out := make([]httptransport.WarningResponse, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, httptransport.WarningResponse{
			Code:    string(warning.Code),
			Message: warning.Message,
		})
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
