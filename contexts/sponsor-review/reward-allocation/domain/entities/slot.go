package entities

import "github.com/shopspring/decimal"

// Slot is the derived occupancy of one reward position.
type Slot struct {
	Position  int
	Capacity  int
	Reward    decimal.Decimal
	Occupants []string
}

func (s Slot) Full() bool {
	return len(s.Occupants) >= s.Capacity
}

// SlotState describes a position after an assign or unassign call.
type SlotState struct {
	CandidateID      string
	Position         int
	PreviousPosition int
	Capacity         int
	Occupants        []string
	// AutoFixed is set when a spam label was reset to allow the assignment.
	AutoFixed bool
}
