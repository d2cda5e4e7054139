package services

import (
	"fmt"
	"time"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func podiumListing(listingType entities.ListingType, maxBonus int, bonusReward int64) entities.Listing {
	rewards := entities.RewardSchedule{
		1: decimal.NewFromInt(500),
		2: decimal.NewFromInt(300),
		3: decimal.NewFromInt(200),
	}
	if bonusReward > 0 {
		rewards[entities.BonusPosition] = decimal.NewFromInt(bonusReward)
	}
	return entities.Listing{
		ListingID:     "listing-1",
		SponsorID:     "sponsor-1",
		Type:          listingType,
		Rewards:       rewards,
		MaxBonusSpots: maxBonus,
		Deadline:      testNow.Add(-time.Hour),
	}
}

func pendingCandidates(n int) []entities.Candidate {
	items := make([]entities.Candidate, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, entities.Candidate{
			CandidateID: fmt.Sprintf("cand-%02d", i),
			ListingID:   "listing-1",
			ApplicantID: fmt.Sprintf("user-%02d", i),
			Kind:        entities.CandidateKindSubmission,
			Status:      entities.StatusPending,
			Label:       entities.LabelUnreviewed,
		})
	}
	return items
}
