// Package analytics classifies contract risk and aggregates it for the
// exception dashboard. Every function takes "today" explicitly.
package analytics

import (
	"time"

	"ContractTracker/internal/domain"
)

const (
	// SilentThresholdDays is how long a contract may go without updates.
	SilentThresholdDays = 30
	// PaymentGraceDays is the allowed gap between signing and deposit.
	PaymentGraceDays = 3
	// MaterialBufferDays is how early materials must be ready before production.
	MaterialBufferDays = 14
)

// Rule is one step of the classifier. Rules run in order and every rule whose
// Applies returns true overwrites what earlier rules wrote.
type Rule struct {
	Name    string
	Applies func(c domain.Contract, today time.Time, current domain.Classification) bool
	Apply   func(cls *domain.Classification, c domain.Contract, today time.Time)
}

// DefaultRules is the production rule order: silent, money, materials, lead time.
var DefaultRules = []Rule{
	{
		Name: "silent",
		Applies: func(c domain.Contract, today time.Time, _ domain.Classification) bool {
			return c.LastUpdated != nil && domain.DaysBetween(*c.LastUpdated, today) > SilentThresholdDays
		},
		Apply: func(cls *domain.Classification, c domain.Contract, today time.Time) {
			setBlocker(cls, domain.BlockSilent, domain.StageUpdate,
				domain.DaysBetween(*c.LastUpdated, today)-SilentThresholdDays, "No update for too long")
		},
	},
	{
		Name: "money",
		Applies: func(c domain.Contract, today time.Time, _ domain.Classification) bool {
			return c.DepositStatus == domain.PaymentUnpaid && c.SigningDate != nil &&
				domain.DaysBetween(*c.SigningDate, today) > PaymentGraceDays
		},
		Apply: func(cls *domain.Classification, c domain.Contract, today time.Time) {
			setBlocker(cls, domain.BlockMoney, domain.StagePayment,
				domain.DaysBetween(*c.SigningDate, today)-PaymentGraceDays, "Payment not received")
		},
	},
	{
		Name: "materials",
		Applies: func(c domain.Contract, today time.Time, _ domain.Classification) bool {
			return c.MaterialStatus == domain.MaterialMissing && c.ProductionStartDate != nil &&
				domain.DaysBetween(today, *c.ProductionStartDate) <= MaterialBufferDays
		},
		Apply: func(cls *domain.Classification, c domain.Contract, today time.Time) {
			setBlocker(cls, domain.BlockMaterials, domain.StageMaterials,
				MaterialBufferDays-domain.DaysBetween(today, *c.ProductionStartDate), "Materials incomplete")
		},
	},
	{
		Name: "production overrun",
		Applies: func(c domain.Contract, today time.Time, current domain.Classification) bool {
			return !current.IsBlocker && c.Status == domain.StatusProduction &&
				c.ProductionEndDate != nil && domain.DaysBetween(*c.ProductionEndDate, today) > 0
		},
		Apply: func(cls *domain.Classification, c domain.Contract, today time.Time) {
			setDelay(cls, domain.StageProduction, domain.DaysBetween(*c.ProductionEndDate, today), "Production overdue")
		},
	},
	{
		Name: "shipping overrun",
		Applies: func(c domain.Contract, today time.Time, current domain.Classification) bool {
			return !current.IsBlocker && current.BlockReason != domain.BlockLeadTime &&
				c.DueDate != nil && domain.DaysBetween(*c.DueDate, today) > 0
		},
		Apply: func(cls *domain.Classification, c domain.Contract, today time.Time) {
			setDelay(cls, domain.StageShipping, domain.DaysBetween(*c.DueDate, today), "Past internal target")
		},
	},
}

// Classify evaluates c against DefaultRules.
func Classify(c domain.Contract, today time.Time) domain.Classification {
	return ClassifyWith(DefaultRules, c, today)
}

// ClassifyWith evaluates c against a custom ordered rule list.
func ClassifyWith(rules []Rule, c domain.Contract, today time.Time) domain.Classification {
	today = domain.DateOf(today)
	cls := domain.Classification{
		ContractID:  c.ID,
		Stage:       domain.StageStart,
		BlockReason: domain.BlockNone,
		StatusText:  "Normal",
	}

	for _, rule := range rules {
		if rule.Applies(c, today, cls) {
			rule.Apply(&cls, c, today)
		}
	}

	if cls.DelayDays < 0 {
		cls.DelayDays = 0
	}
	return cls
}

func setBlocker(cls *domain.Classification, reason domain.BlockReason, stage domain.Stage, delay int, text string) {
	cls.IsBlocker = true
	cls.BlockReason = reason
	cls.Stage = stage
	cls.DelayDays = delay
	cls.StatusText = text
}

func setDelay(cls *domain.Classification, stage domain.Stage, delay int, text string) {
	cls.BlockReason = domain.BlockLeadTime
	cls.Stage = stage
	cls.DelayDays = delay
	cls.StatusText = text
}
