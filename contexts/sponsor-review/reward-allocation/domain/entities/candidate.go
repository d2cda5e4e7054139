package entities

import (
	"strings"
	"time"

	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"

	"github.com/shopspring/decimal"
)

// NoPosition marks a candidate that holds no reward slot.
const NoPosition = 0

type CandidateKind string

const (
	CandidateKindSubmission  CandidateKind = "submission"
	CandidateKindApplication CandidateKind = "application"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return status, nil
	default:
		return "", domainerrors.ErrInvalidStatus
	}
}

// Terminal reports whether the status closes the candidate for slots.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

type Label string

const (
	LabelUnreviewed  Label = "unreviewed"
	LabelPending     Label = "pending"
	LabelReviewed    Label = "reviewed"
	LabelShortlisted Label = "shortlisted"
	LabelLowQuality  Label = "low_quality"
	LabelMidQuality  Label = "mid_quality"
	LabelHighQuality Label = "high_quality"
	LabelSpam        Label = "spam"
)

func ParseLabel(raw string) (Label, error) {
	label := Label(strings.ToLower(strings.TrimSpace(raw)))
	switch label {
	case LabelUnreviewed, LabelPending, LabelReviewed, LabelShortlisted,
		LabelLowQuality, LabelMidQuality, LabelHighQuality, LabelSpam:
		return label, nil
	default:
		return "", domainerrors.ErrInvalidLabel
	}
}

// Untouched reports whether nobody has triaged the candidate yet.
func (l Label) Untouched() bool {
	return l == LabelUnreviewed || l == LabelPending
}

type Candidate struct {
	CandidateID    string
	ListingID      string
	ApplicantID    string
	Kind           CandidateKind
	Status         Status
	Label          Label
	IsWinner       bool
	WinnerPosition int
	Ask            decimal.Decimal
	ApprovedAmount decimal.Decimal
	TotalPaid      decimal.Decimal
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c Candidate) HoldsSlot() bool {
	return c.IsWinner && c.WinnerPosition != NoPosition
}
