package analytics

import (
	"time"

	"ContractTracker/internal/domain"
)

// Category identifies a KPI and doubles as the key-contract filter.
type Category string

const (
	CategoryLeadTime Category = "lead-time"
	CategoryPayment  Category = "payment"
	CategoryMaterial Category = "material"
	CategoryData     Category = "data"
)

// KPI is one dashboard counter.
type KPI struct {
	ID     Category
	Title  string
	Detail string
	Value  int
	Total  int
}

// KPISummary holds the four dashboard counters.
type KPISummary struct {
	LeadTime KPI
	Payment  KPI
	Material KPI
	Data     KPI
}

// All lists the counters in dashboard order.
func (s KPISummary) All() []KPI {
	return []KPI{s.LeadTime, s.Payment, s.Material, s.Data}
}

// CalculateKPIs counts contracts per dashboard category. The predicates are
// the dashboard's own filters and intentionally differ from Classify: the
// payment counter also looks at the pre-production payment and the material
// counter treats anything not Ready as a risk.
func CalculateKPIs(contracts []domain.Contract, today time.Time) KPISummary {
	today = domain.DateOf(today)
	total := len(contracts)

	summary := KPISummary{
		LeadTime: KPI{ID: CategoryLeadTime, Title: "Lead Time Breach", Detail: "Stage SLA over target", Total: total},
		Payment:  KPI{ID: CategoryPayment, Title: "Payment Blocked", Detail: "Payment pending for more than 3 days", Total: total},
		Material: KPI{ID: CategoryMaterial, Title: "Material Risk", Detail: "Materials missing close to production", Total: total},
		Data:     KPI{ID: CategoryData, Title: "Data Quality", Detail: "Missing or inconsistent fields", Total: total},
	}

	for _, c := range contracts {
		if isLeadTimeBreach(c, today) {
			summary.LeadTime.Value++
		}
		if isPaymentBlocked(c, today) {
			summary.Payment.Value++
		}
		if isMaterialRisk(c, today) {
			summary.Material.Value++
		}
		if len(DataIssues(c)) > 0 {
			summary.Data.Value++
		}
	}

	return summary
}

func isLeadTimeBreach(c domain.Contract, today time.Time) bool {
	return c.Status != domain.StatusCompleted && overallDelay(c, today) > 0
}

// overallDelay returns the first positive delay in payment, material, due
// date, production end order.
func overallDelay(c domain.Contract, today time.Time) int {
	if c.DepositStatus == domain.PaymentUnpaid && c.SigningDate != nil {
		if days := domain.DaysBetween(*c.SigningDate, today); days > PaymentGraceDays {
			return days - PaymentGraceDays
		}
	}
	if c.MaterialStatus == domain.MaterialMissing && c.ProductionStartDate != nil {
		if until := domain.DaysBetween(today, *c.ProductionStartDate); until < MaterialBufferDays {
			return MaterialBufferDays - until
		}
	}
	if c.DueDate != nil {
		if late := domain.DaysBetween(*c.DueDate, today); late > 0 {
			return late
		}
	}
	if c.Status == domain.StatusProduction && c.ProductionEndDate != nil {
		if late := domain.DaysBetween(*c.ProductionEndDate, today); late > 0 {
			return late
		}
	}
	return 0
}

func isPaymentBlocked(c domain.Contract, today time.Time) bool {
	if c.Status == domain.StatusCompleted || c.SigningDate == nil {
		return false
	}
	if c.DepositStatus != domain.PaymentUnpaid && c.PreProdPaymentStatus != domain.PaymentUnpaid {
		return false
	}
	return domain.DaysBetween(*c.SigningDate, today) > PaymentGraceDays
}

func isMaterialRisk(c domain.Contract, today time.Time) bool {
	if c.MaterialStatus == domain.MaterialReady || c.Status == domain.StatusCompleted {
		return false
	}
	if c.ProductionStartDate == nil {
		return false
	}
	return domain.DaysBetween(today, *c.ProductionStartDate) <= MaterialBufferDays
}
