// Package scheduling expands production plans into daily allocations and
// projects committed schedules onto a machine by date grid.
package scheduling

import (
	"time"

	"ContractTracker/internal/domain"
)

// GenerateDailyBreakdown walks start..end inclusively and assigns each kept
// day either its override (keyed by domain.DateKey) or dailyTarget.
// Weekend days are dropped, not zeroed, unless includeWeekends is set.
// An inverted or fully excluded range yields an empty slice.
func GenerateDailyBreakdown(start, end time.Time, dailyTarget int, includeWeekends bool, overrides map[string]int) []domain.DailyAllocation {
	first := domain.DateOf(start)
	last := domain.DateOf(end)
	if last.Before(first) {
		return []domain.DailyAllocation{}
	}

	breakdown := make([]domain.DailyAllocation, 0, domain.DaysBetween(first, last)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !includeWeekends && domain.IsWeekend(day) {
			continue
		}

		qty := dailyTarget
		if override, ok := overrides[domain.DateKey(day)]; ok {
			qty = override
		}

		breakdown = append(breakdown, domain.DailyAllocation{Date: day, Quantity: qty})
	}

	return breakdown
}

// TotalScheduled is the sum of a breakdown.
func TotalScheduled(breakdown []domain.DailyAllocation) int {
	return domain.SumAllocations(breakdown)
}
