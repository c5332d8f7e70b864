package analytics

import (
	"math"

	"ContractTracker/internal/domain"
)

// DataIssue is a structural anomaly in a contract record.
type DataIssue string

const (
	IssueStartAfterDue          DataIssue = "Start > Due Date"
	IssueCompletedWithoutShip   DataIssue = "Completed without shipping date"
	IssueProductionEndBeforeRun DataIssue = "Production end before start"
)

// DataIssues lists every anomaly found in c.
func DataIssues(c domain.Contract) []DataIssue {
	var issues []DataIssue
	if c.StartDate != nil && c.DueDate != nil && domain.DaysBetween(*c.DueDate, *c.StartDate) > 0 {
		issues = append(issues, IssueStartAfterDue)
	}
	if c.Status == domain.StatusCompleted && c.ShippingDate == nil {
		issues = append(issues, IssueCompletedWithoutShip)
	}
	if c.Status == domain.StatusProduction && c.ProductionStartDate != nil && c.ProductionEndDate != nil &&
		domain.DaysBetween(*c.ProductionStartDate, *c.ProductionEndDate) < 0 {
		issues = append(issues, IssueProductionEndBeforeRun)
	}
	return issues
}

// QualityIssue ties an anomaly to its contract.
type QualityIssue struct {
	ContractID  string
	ContractNo  string
	ProductName string
	Issue       DataIssue
}

// DataQualityStats is the data-quality panel.
type DataQualityStats struct {
	Score  int
	Good   int
	Issues []QualityIssue
}

// GetDataQualityStats scores the share of contracts without anomalies, as a
// rounded percentage. An empty collection scores 100.
func GetDataQualityStats(contracts []domain.Contract) DataQualityStats {
	stats := DataQualityStats{Score: 100}

	flagged := 0
	for _, c := range contracts {
		issues := DataIssues(c)
		if len(issues) == 0 {
			continue
		}
		flagged++
		for _, issue := range issues {
			stats.Issues = append(stats.Issues, QualityIssue{
				ContractID:  c.ID,
				ContractNo:  c.ContractNo,
				ProductName: c.ProductName,
				Issue:       issue,
			})
		}
	}

	stats.Good = len(contracts) - flagged
	if len(contracts) > 0 {
		stats.Score = int(math.Round(float64(stats.Good) / float64(len(contracts)) * 100))
	}
	return stats
}

// StatusCounts tallies contracts per status.
func StatusCounts(contracts []domain.Contract) map[domain.ContractStatus]int {
	counts := make(map[domain.ContractStatus]int, 3)
	for _, c := range contracts {
		counts[c.Status]++
	}
	return counts
}
