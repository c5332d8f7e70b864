package domain

import "time"

// DailyAllocation is the planned quantity for one calendar day.
type DailyAllocation struct {
	Date     time.Time
	Quantity int
}

// ScheduleEntry is a committed production run of one contract on one machine.
type ScheduleEntry struct {
	ID              string
	ContractID      string
	MachineID       string
	StartDate       time.Time
	EndDate         time.Time
	DailyQuantities []DailyAllocation
	TotalScheduled  int
	Notes           string
}

// NewScheduleEntry is a schedule entry that has not been assigned an ID yet.
type NewScheduleEntry struct {
	ContractID      string
	MachineID       string
	StartDate       time.Time
	EndDate         time.Time
	DailyQuantities []DailyAllocation
	Notes           string
}

// QuantityOn returns the allocation for the given day, or zero.
func (e ScheduleEntry) QuantityOn(day time.Time) int {
	key := DateKey(day)
	for _, alloc := range e.DailyQuantities {
		if DateKey(alloc.Date) == key {
			return alloc.Quantity
		}
	}
	return 0
}

// SumAllocations adds up the quantities of a breakdown.
func SumAllocations(allocs []DailyAllocation) int {
	total := 0
	for _, alloc := range allocs {
		total += alloc.Quantity
	}
	return total
}
