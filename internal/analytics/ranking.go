package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ContractTracker/internal/domain"
)

const (
	// KeyContractLimit caps the key-contract list.
	KeyContractLimit = 20
	// ZombieLimit caps the zombie item list.
	ZombieLimit = 5
)

// Kind separates hard blockers from plain delays.
type Kind string

const (
	KindBlocker Kind = "blocker"
	KindDelay   Kind = "delay"
)

// KeyContract is one row of the at-risk list.
type KeyContract struct {
	Contract         domain.Contract
	Classification   domain.Classification
	Kind             Kind
	DaysSinceSigning int
	DaysSinceUpdate  int
}

// GetKeyContracts classifies open contracts and keeps the ones at risk,
// worst delay first, at most KeyContractLimit rows. A non-empty filter
// restricts the list to one KPI category; CategoryData never matches and
// unknown filters yield nothing.
func GetKeyContracts(contracts []domain.Contract, today time.Time, filter Category) []KeyContract {
	today = domain.DateOf(today)

	var rows []KeyContract
	for _, c := range contracts {
		if c.Status == domain.StatusCompleted {
			continue
		}

		cls := Classify(c, today)
		if !keep(cls, filter) {
			continue
		}

		row := KeyContract{Contract: c, Classification: cls, Kind: KindDelay}
		if cls.IsBlocker {
			row.Kind = KindBlocker
		}
		if c.SigningDate != nil {
			row.DaysSinceSigning = domain.DaysBetween(*c.SigningDate, today)
		}
		if c.LastUpdated != nil {
			row.DaysSinceUpdate = domain.DaysBetween(*c.LastUpdated, today)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Classification.DelayDays > rows[j].Classification.DelayDays
	})

	if len(rows) > KeyContractLimit {
		rows = rows[:KeyContractLimit]
	}
	return rows
}

func keep(cls domain.Classification, filter Category) bool {
	switch filter {
	case "":
		return cls.IsBlocker || cls.DelayDays > 0
	case CategoryLeadTime:
		return cls.DelayDays > 0
	case CategoryPayment:
		return cls.BlockReason == domain.BlockMoney
	case CategoryMaterial:
		return cls.BlockReason == domain.BlockMaterials
	default:
		return false
	}
}

// ValueFunc supplies the monetary value of a contract for inventory views.
type ValueFunc func(domain.Contract) decimal.Decimal

// PersistedValue reads the value stored on the contract.
func PersistedValue(c domain.Contract) decimal.Decimal {
	return c.Value
}

// ZombieItem is a stale contract with its tied-up value.
type ZombieItem struct {
	ContractID  string
	ContractNo  string
	ProductName string
	Amount      decimal.Decimal
	Days        int
}

// ZombieStats summarises contracts nobody has touched for a month.
type ZombieStats struct {
	TotalValue decimal.Decimal
	Count      int
	Items      []ZombieItem
}

// GetZombieInventory lists open contracts not updated for more than
// SilentThresholdDays, stalest first. Count and TotalValue cover every zombie,
// Items only the top ZombieLimit. A nil valueOf falls back to PersistedValue.
func GetZombieInventory(contracts []domain.Contract, today time.Time, valueOf ValueFunc) ZombieStats {
	today = domain.DateOf(today)
	if valueOf == nil {
		valueOf = PersistedValue
	}

	stats := ZombieStats{TotalValue: decimal.Zero}
	var items []ZombieItem
	for _, c := range contracts {
		if c.Status == domain.StatusCompleted || c.LastUpdated == nil {
			continue
		}
		days := domain.DaysBetween(*c.LastUpdated, today)
		if days <= SilentThresholdDays {
			continue
		}

		amount := valueOf(c)
		stats.TotalValue = stats.TotalValue.Add(amount)
		items = append(items, ZombieItem{
			ContractID:  c.ID,
			ContractNo:  c.ContractNo,
			ProductName: c.ProductName,
			Amount:      amount,
			Days:        days,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Days > items[j].Days })

	stats.Count = len(items)
	if len(items) > ZombieLimit {
		items = items[:ZombieLimit]
	}
	stats.Items = items
	return stats
}
