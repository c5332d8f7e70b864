package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ContractTracker/internal/analytics"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
)

// DigestDeps wires the adapters used by the digest.
type DigestDeps struct {
	Contracts ports.ContractSource
	Notifier  ports.Notifier
	ValueOf   analytics.ValueFunc
	Logger    *slog.Logger
}

// Report is the exception dashboard for one day.
type Report struct {
	Day          time.Time
	KPIs         analytics.KPISummary
	KeyContracts []analytics.KeyContract
	Zombies      analytics.ZombieStats
	DataQuality  analytics.DataQualityStats
}

// Digest builds the exception report and pushes it to the notifier.
type Digest struct {
	contracts ports.ContractSource
	notifier  ports.Notifier
	valueOf   analytics.ValueFunc
	logger    *slog.Logger
}

// NewDigest constructs the digest use case.
func NewDigest(deps DigestDeps) *Digest {
	return &Digest{
		contracts: deps.Contracts,
		notifier:  deps.Notifier,
		valueOf:   deps.ValueOf,
		logger:    deps.Logger,
	}
}

// Build computes the report for the given day.
func (d *Digest) Build(ctx context.Context, day time.Time, filter analytics.Category) (Report, error) {
	if d.contracts == nil {
		return Report{}, fmt.Errorf("contract source is not configured")
	}

	contracts, err := d.contracts.FetchContracts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetch contracts: %w", err)
	}

	day = domain.DateOf(day)
	report := Report{
		Day:          day,
		KPIs:         analytics.CalculateKPIs(contracts, day),
		KeyContracts: analytics.GetKeyContracts(contracts, day, filter),
		Zombies:      analytics.GetZombieInventory(contracts, day, d.valueOf),
		DataQuality:  analytics.GetDataQualityStats(contracts),
	}

	d.debug("report built", "day", domain.DateKey(day), "contracts", len(contracts), "key_contracts", len(report.KeyContracts), "zombies", report.Zombies.Count)
	return report, nil
}

// Run builds the report for day and publishes it. Nothing is sent when no
// contract is at risk.
func (d *Digest) Run(ctx context.Context, day time.Time) error {
	report, err := d.Build(ctx, day, "")
	if err != nil {
		return err
	}

	if len(report.KeyContracts) == 0 && report.Zombies.Count == 0 {
		d.debug("nothing to report", "day", domain.DateKey(report.Day))
		return nil
	}

	if d.notifier == nil {
		return nil
	}

	if err := d.notifier.PublishDigest(ctx, FormatDigest(report)); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	return nil
}

// markdownEscaper escapes the entities of Telegram's legacy Markdown mode.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// FormatDigest renders the report as a Markdown message. Contract fields are
// escaped so identifiers like C_2411*01 stay literal.
func FormatDigest(report Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Contract exceptions %s*\n", domain.DateKey(report.Day))
	for _, kpi := range report.KPIs.All() {
		fmt.Fprintf(&b, "%s: %d/%d\n", kpi.Title, kpi.Value, kpi.Total)
	}

	if len(report.KeyContracts) > 0 {
		b.WriteString("\n*Key contracts*\n")
		for _, row := range report.KeyContracts {
			fmt.Fprintf(&b, "- %s %s: %s, %s, %dd late\n",
				markdownEscaper.Replace(row.Contract.ContractNo),
				markdownEscaper.Replace(row.Contract.Client),
				markdownEscaper.Replace(string(row.Classification.Stage)),
				markdownEscaper.Replace(row.Classification.StatusText),
				row.Classification.DelayDays)
		}
	}

	if report.Zombies.Count > 0 {
		fmt.Fprintf(&b, "\n*Zombie contracts* %d, value %s\n", report.Zombies.Count, report.Zombies.TotalValue.StringFixed(2))
		for _, item := range report.Zombies.Items {
			fmt.Fprintf(&b, "- %s %s: %dd without update\n",
				markdownEscaper.Replace(item.ContractNo), markdownEscaper.Replace(item.ProductName), item.Days)
		}
	}

	return b.String()
}

func (d *Digest) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
