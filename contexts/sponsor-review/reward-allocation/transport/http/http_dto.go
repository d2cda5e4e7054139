package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CandidateResponse struct {
	CandidateID    string     `json:"candidate_id"`
	ListingID      string     `json:"listing_id"`
	ApplicantID    string     `json:"applicant_id"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	Label          string     `json:"label"`
	IsWinner       bool       `json:"is_winner"`
	WinnerPosition int        `json:"winner_position,omitempty"`
	Ask            string     `json:"ask"`
	ApprovedAmount string     `json:"approved_amount"`
	TotalPaid      string     `json:"total_paid"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

type CandidateListResponse struct {
	ListingID string              `json:"listing_id"`
	Items     []CandidateResponse `json:"items"`
}

type SlotResponse struct {
	Position  int      `json:"position"`
	Bonus     bool     `json:"bonus"`
	Capacity  int      `json:"capacity"`
	Reward    string   `json:"reward"`
	Occupants []string `json:"occupants"`
	Full      bool     `json:"full"`
}

type SlotTableResponse struct {
	ListingID          string         `json:"listing_id"`
	IsWinnersAnnounced bool           `json:"is_winners_announced"`
	Slots              []SlotResponse `json:"slots"`
}

type AssignWinnerRequest struct {
	CandidateID string `json:"candidate_id"`
	Position    int    `json:"position"`
}

type SlotStateResponse struct {
	CandidateID      string   `json:"candidate_id"`
	Position         int      `json:"position"`
	PreviousPosition int      `json:"previous_position"`
	Capacity         int      `json:"capacity"`
	Occupants        []string `json:"occupants"`
	AutoFixed        bool     `json:"auto_fixed"`
}

type WinnerResponse struct {
	Slot      SlotStateResponse `json:"slot"`
	Candidate CandidateResponse `json:"candidate"`
}

type ApproveRequest struct {
	ApprovedAmount string `json:"approved_amount"`
}

type PaymentRequest struct {
	Amount string `json:"amount"`
}

type PaymentResponse struct {
	Candidate CandidateResponse `json:"candidate"`
	Completed bool              `json:"completed"`
}

type BatchRequest struct {
	Transition          string   `json:"transition"`
	CandidateIDs        []string `json:"candidate_ids"`
	ChunkSize           int      `json:"chunk_size,omitempty"`
	SelectedCandidateID string   `json:"selected_candidate_id,omitempty"`
}

type BatchFailureResponse struct {
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason"`
}

type BatchResponse struct {
	Requested           int                    `json:"requested"`
	Succeeded           []string               `json:"succeeded"`
	Failed              []BatchFailureResponse `json:"failed"`
	Skipped             []string               `json:"skipped"`
	ChunksConfirmed     int                    `json:"chunks_confirmed"`
	Halted              bool                   `json:"halted"`
	SelectedCandidateID string                 `json:"selected_candidate_id,omitempty"`
	Replayed            bool                   `json:"replayed"`
	Summary             string                 `json:"summary"`
}

type WarningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PrecheckResponse struct {
	ListingID       string            `json:"listing_id"`
	Complete        bool              `json:"complete"`
	RequiredSlots   int               `json:"required_slots"`
	FilledSlots     int               `json:"filled_slots"`
	RemainingSlots  int               `json:"remaining_slots"`
	OpenBonusSpots  int               `json:"open_bonus_spots"`
	UnfillableBonus int               `json:"unfillable_bonus"`
	Warnings        []WarningResponse `json:"warnings"`
}

type PublishRequest struct {
	WinnerCandidateID string `json:"winner_candidate_id,omitempty"`
}

type PublishResponse struct {
	ListingID          string              `json:"listing_id"`
	IsWinnersAnnounced bool                `json:"is_winners_announced"`
	AnnouncedAt        *time.Time          `json:"announced_at,omitempty"`
	Winners            []CandidateResponse `json:"winners"`
	Warnings           []WarningResponse   `json:"warnings"`
}
