package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by publishers
// and consumers. Fields are append-only.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventCandidateRejected   = "reward_allocation.candidate_rejected"
	EventCandidateMarkedSpam = "reward_allocation.candidate_marked_spam"
	EventCandidateApproved   = "reward_allocation.candidate_approved"
	EventWinnersAnnounced    = "reward_allocation.winners_announced"
)

type CandidateRejectedData struct {
	ListingID   string `json:"listing_id"`
	CandidateID string `json:"candidate_id"`
	ApplicantID string `json:"applicant_id"`
	ActorID     string `json:"actor_id"`
}

type CandidateMarkedSpamData struct {
	ListingID   string `json:"listing_id"`
	CandidateID string `json:"candidate_id"`
	ApplicantID string `json:"applicant_id"`
	ActorID     string `json:"actor_id"`
}

type CandidateApprovedData struct {
	ListingID      string `json:"listing_id"`
	CandidateID    string `json:"candidate_id"`
	ApplicantID    string `json:"applicant_id"`
	ApprovedAmount string `json:"approved_amount"`
	ActorID        string `json:"actor_id"`
}

type WinnerData struct {
	CandidateID string `json:"candidate_id"`
	ApplicantID string `json:"applicant_id"`
	Position    int    `json:"position"`
}

type WinnersAnnouncedData struct {
	ListingID   string       `json:"listing_id"`
	ListingType string       `json:"listing_type"`
	ActorID     string       `json:"actor_id"`
	AnnouncedAt time.Time    `json:"announced_at"`
	Winners     []WinnerData `json:"winners"`
	SpamCount   int          `json:"spam_count"`
}
