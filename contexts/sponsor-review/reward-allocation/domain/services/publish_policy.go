package services

import (
	"fmt"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"

	"github.com/shopspring/decimal"
)

type WarningCode string

const (
	WarningBonusShortfall    WarningCode = "bonus_shortfall"
	WarningPaymentsMismatch  WarningCode = "payments_mismatch"
	WarningSpamCandidates    WarningCode = "spam_candidates"
	WarningEarlyAnnouncement WarningCode = "early_announcement"
)

// Warning is advisory and never blocks a publish.
type Warning struct {
	Code    WarningCode
	Message string
}

type Completeness struct {
	Complete      bool
	RequiredSlots int
	FilledSlots   int
	// RemainingSlots is the blocking gap: open slots that eligible
	// candidates could still fill.
	RemainingSlots  int
	OpenBonusSpots  int
	UnfillableBonus int
}

// Precheck evaluates whether a listing's winner selection can be announced.
// A bonus shortfall caused by too few eligible candidates is reported as a
// warning and does not count against completeness.
func Precheck(listing entities.Listing, candidates []entities.Candidate, now time.Time) (Completeness, []Warning) {
	podium := listing.Rewards.PodiumPositions()
	bonusRequired := 0
	if listing.Rewards.HasBonus() {
		bonusRequired = listing.MaxBonusSpots
	}

	podiumFilled := make(map[int]bool, len(podium))
	bonusFilled := 0
	eligible := 0
	spamCount := 0
	totalPaid := decimal.Zero
	for _, candidate := range candidates {
		totalPaid = totalPaid.Add(candidate.TotalPaid)
		if candidate.Label == entities.LabelSpam {
			spamCount++
		}
		if candidate.Status.Terminal() {
			continue
		}
		if !candidate.HoldsSlot() {
			eligible++
			continue
		}
		if candidate.WinnerPosition == entities.BonusPosition {
			bonusFilled++
			continue
		}
		podiumFilled[candidate.WinnerPosition] = true
	}

	filledPodium := 0
	for _, position := range podium {
		if podiumFilled[position] {
			filledPodium++
		}
	}
	bonusFilled = min(bonusFilled, bonusRequired)
	openBonus := bonusRequired - bonusFilled
	unfillable := max(openBonus-eligible, 0)

	result := Completeness{
		RequiredSlots:   len(podium) + bonusRequired,
		FilledSlots:     filledPodium + bonusFilled,
		OpenBonusSpots:  openBonus,
		UnfillableBonus: unfillable,
	}
	result.RemainingSlots = result.RequiredSlots - result.FilledSlots - unfillable
	result.Complete = result.RemainingSlots == 0

	warnings := make([]Warning, 0, 4)
	if unfillable > 0 {
		warnings = append(warnings, Warning{
			Code:    WarningBonusShortfall,
			Message: fmt.Sprintf("%d of %d bonus spots cannot be filled", unfillable, bonusRequired),
		})
	}
	totalValue := listing.Rewards.TotalValue(listing.MaxBonusSpots)
	if !totalPaid.Equal(totalValue) {
		warnings = append(warnings, Warning{
			Code:    WarningPaymentsMismatch,
			Message: fmt.Sprintf("recorded payments %s differ from total reward %s", totalPaid.String(), totalValue.String()),
		})
	}
	if spamCount > 0 {
		warnings = append(warnings, Warning{
			Code:    WarningSpamCandidates,
			Message: fmt.Sprintf("%d candidates are labelled spam and will be penalised on announcement", spamCount),
		})
	}
	if !listing.RollingDeadline && !listing.Deadline.IsZero() && now.Before(listing.Deadline) {
		warnings = append(warnings, Warning{
			Code:    WarningEarlyAnnouncement,
			Message: "announcing before the deadline closes the listing early",
		})
	}
	return result, warnings
}
