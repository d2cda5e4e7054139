package entities

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BonusPosition is the sentinel position shared by every bonus spot.
const BonusPosition = 99

type ListingType string

const (
	ListingTypeBounty    ListingType = "bounty"
	ListingTypeProject   ListingType = "project"
	ListingTypeGrant     ListingType = "grant"
	ListingTypeHackathon ListingType = "hackathon"
)

func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeBounty, ListingTypeProject, ListingTypeGrant, ListingTypeHackathon:
		return true
	default:
		return false
	}
}

// RewardSchedule maps a reward position to its amount. The bonus sentinel
// holds the per-spot bonus amount.
type RewardSchedule map[int]decimal.Decimal

// PodiumPositions returns the positive non-bonus positions that carry a
// positive reward, in ascending order.
func (s RewardSchedule) PodiumPositions() []int {
	positions := make([]int, 0, len(s))
	for position, amount := range s {
		if position <= 0 || position == BonusPosition {
			continue
		}
		if !amount.IsPositive() {
			continue
		}
		positions = append(positions, position)
	}
	sort.Ints(positions)
	return positions
}

func (s RewardSchedule) HasBonus() bool {
	amount, ok := s[BonusPosition]
	return ok && amount.IsPositive()
}

// AmountFor returns the reward for a position, zero when unset.
func (s RewardSchedule) AmountFor(position int) decimal.Decimal {
	if amount, ok := s[position]; ok {
		return amount
	}
	return decimal.Zero
}

// TotalValue sums the podium rewards and every bonus spot.
func (s RewardSchedule) TotalValue(maxBonusSpots int) decimal.Decimal {
	total := decimal.Zero
	for _, position := range s.PodiumPositions() {
		total = total.Add(s[position])
	}
	if s.HasBonus() && maxBonusSpots > 0 {
		total = total.Add(s[BonusPosition].Mul(decimal.NewFromInt(int64(maxBonusSpots))))
	}
	return total
}

type Listing struct {
	ListingID          string
	SponsorID          string
	Title              string
	Type               ListingType
	Rewards            RewardSchedule
	MaxBonusSpots      int
	Deadline           time.Time
	RollingDeadline    bool
	IsWinnersAnnounced bool
	AnnouncedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Capacity returns how many occupants a position can hold and whether the
// position belongs to the listing's reward table at all.
func (l Listing) Capacity(position int) (int, bool) {
	if position == BonusPosition {
		if !l.Rewards.HasBonus() && l.MaxBonusSpots <= 0 {
			return 0, false
		}
		return max(l.MaxBonusSpots, 0), true
	}
	for _, podium := range l.Rewards.PodiumPositions() {
		if podium == position {
			return 1, true
		}
	}
	return 0, false
}

// RequiredSlots is the number of winners a complete selection has.
func (l Listing) RequiredSlots() int {
	required := len(l.Rewards.PodiumPositions())
	if l.Rewards.HasBonus() {
		required += l.MaxBonusSpots
	}
	return required
}
