package httpserver

import (
	"bytes"
	"errors"
	"net/http"

	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	rewardhttp "sponsordesk/contexts/sponsor-review/reward-allocation/transport/http"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) registerRewardAllocationRoutes() {
	s.mux.HandleFunc("GET /v1/listings/{listing_id}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("GET /v1/listings/{listing_id}/slots", s.handleListSlots)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/winners", s.handleAssignWinner)
	s.mux.HandleFunc("DELETE /v1/listings/{listing_id}/winners/{candidate_id}", s.handleUnassignWinner)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/{candidate_id}/reject", s.handleRejectCandidate)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/{candidate_id}/spam", s.handleMarkSpam)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/{candidate_id}/approve", s.handleApproveCandidate)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/{candidate_id}/complete", s.handleCompleteCandidate)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/{candidate_id}/payments", s.handleRecordPayment)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/candidates/batch", s.handleBatchTransition)
	s.mux.HandleFunc("GET /v1/listings/{listing_id}/publish/precheck", s.handlePrecheck)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/publish", s.handlePublish)
	s.mux.HandleFunc("GET /v1/listings/{listing_id}/winners.xlsx", s.handleExportWinners)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.ListCandidatesHandler(r.Context(), r.PathValue("listing_id"))
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.ListSlotsHandler(r.Context(), r.PathValue("listing_id"))
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignWinner(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rewardhttp.AssignWinnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.rewards.Handler.AssignWinnerHandler(r.Context(), r.PathValue("listing_id"), actorID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnassignWinner(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.rewards.Handler.UnassignWinnerHandler(
		r.Context(),
		r.PathValue("listing_id"),
		r.PathValue("candidate_id"),
		actorID,
	)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.rewards.Handler.RejectHandler(r.Context(), r.PathValue("listing_id"), r.PathValue("candidate_id"), actorID)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkSpam(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.rewards.Handler.MarkSpamHandler(r.Context(), r.PathValue("listing_id"), r.PathValue("candidate_id"), actorID)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rewardhttp.ApproveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.rewards.Handler.ApproveHandler(r.Context(), r.PathValue("listing_id"), r.PathValue("candidate_id"), actorID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.rewards.Handler.CompleteHandler(r.Context(), r.PathValue("listing_id"), r.PathValue("candidate_id"), actorID)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rewardhttp.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.rewards.Handler.RecordPaymentHandler(r.Context(), r.PathValue("listing_id"), r.PathValue("candidate_id"), actorID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchTransition(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rewardhttp.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.rewards.Handler.BatchHandler(
		r.Context(),
		r.PathValue("listing_id"),
		actorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Halted {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func (s *Server) handlePrecheck(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.PrecheckHandler(r.Context(), r.PathValue("listing_id"))
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rewardhttp.PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.rewards.Handler.PublishHandler(r.Context(), r.PathValue("listing_id"), actorID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportWinners(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("listing_id")
	var buf bytes.Buffer
	if err := s.rewards.Handler.ExportWinnersHandler(r.Context(), listingID, &buf); err != nil {
		writeRewardDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+listingID+`-winners.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeRewardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrListingNotFound):
		writeError(w, http.StatusNotFound, "listing_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrSlotOccupied):
		writeError(w, http.StatusConflict, "slot_occupied", err.Error())
	case errors.Is(err, domainerrors.ErrQuotaExceeded):
		writeError(w, http.StatusConflict, "quota_exceeded", err.Error())
	case errors.Is(err, domainerrors.ErrCandidateTerminal):
		writeError(w, http.StatusConflict, "candidate_terminal", err.Error())
	case errors.Is(err, domainerrors.ErrListingAnnounced):
		writeError(w, http.StatusConflict, "listing_announced", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyAnnounced):
		writeError(w, http.StatusConflict, "already_announced", err.Error())
	case errors.Is(err, domainerrors.ErrWinnerSpamConflict):
		writeError(w, http.StatusConflict, "winner_spam_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrOperationInProgress):
		writeError(w, http.StatusConflict, "operation_in_progress", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrNotComplete):
		writeError(w, http.StatusUnprocessableEntity, "not_complete", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, domainerrors.ErrWinnerRequired):
		writeError(w, http.StatusUnprocessableEntity, "winner_required", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPosition),
		errors.Is(err, domainerrors.ErrInvalidAmount),
		errors.Is(err, domainerrors.ErrInvalidLabel),
		errors.Is(err, domainerrors.ErrInvalidStatus),
		errors.Is(err, domainerrors.ErrInvalidTransitionKind),
		errors.Is(err, domainerrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrStoreFailure):
		writeError(w, http.StatusServiceUnavailable, "store_failure", "reward store is unavailable, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
