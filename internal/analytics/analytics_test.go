package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ContractTracker/internal/domain"
)

var today = time.Date(2024, time.November, 20, 15, 4, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	return domain.DatePtr(today.AddDate(0, 0, -n))
}

func daysFromNow(n int) *time.Time {
	return domain.DatePtr(today.AddDate(0, 0, n))
}

func silentContract() domain.Contract {
	return domain.Contract{
		ID: "silent", ContractNo: "C-S", Status: domain.StatusPending,
		LastUpdated: daysAgo(40), Value: decimal.NewFromInt(1200),
	}
}

func moneyContract() domain.Contract {
	return domain.Contract{
		ID: "money", ContractNo: "C-M", Status: domain.StatusPending,
		SigningDate: daysAgo(18), DepositStatus: domain.PaymentUnpaid,
		LastUpdated: daysAgo(2), DueDate: daysFromNow(40),
	}
}

func materialContract() domain.Contract {
	return domain.Contract{
		ID: "material", ContractNo: "C-X", Status: domain.StatusPending,
		MaterialStatus: domain.MaterialMissing, ProductionStartDate: daysFromNow(5),
		LastUpdated: daysAgo(1),
	}
}

func healthyContract(id string) domain.Contract {
	return domain.Contract{
		ID: id, Status: domain.StatusProduction,
		SigningDate: daysAgo(20), DepositStatus: domain.PaymentPaid, PreProdPaymentStatus: domain.PaymentPaid,
		MaterialStatus: domain.MaterialReady, ProductionStartDate: daysAgo(5), ProductionEndDate: daysFromNow(10),
		DueDate: daysFromNow(15), LastUpdated: daysAgo(1),
	}
}

func fixture() []domain.Contract {
	return []domain.Contract{
		silentContract(), moneyContract(), materialContract(),
		healthyContract("healthy-1"), healthyContract("healthy-2"),
	}
}

func TestClassifyDefault(t *testing.T) {
	t.Parallel()

	cls := Classify(healthyContract("h"), today)
	want := domain.Classification{
		ContractID: "h", Stage: domain.StageStart, BlockReason: domain.BlockNone, StatusText: "Normal",
	}
	if cls != want {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestClassifySilent(t *testing.T) {
	t.Parallel()

	cls := Classify(silentContract(), today)
	if cls.BlockReason != domain.BlockSilent || cls.Stage != domain.StageUpdate || cls.DelayDays != 10 || !cls.IsBlocker {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestClassifyMoney(t *testing.T) {
	t.Parallel()

	cls := Classify(moneyContract(), today)
	if cls.BlockReason != domain.BlockMoney || cls.DelayDays != 15 || cls.Stage != domain.StagePayment {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestClassifyMaterials(t *testing.T) {
	t.Parallel()

	cls := Classify(materialContract(), today)
	if cls.BlockReason != domain.BlockMaterials || cls.DelayDays != 9 || cls.Stage != domain.StageMaterials {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestClassifyLaterRuleOverwrites(t *testing.T) {
	t.Parallel()

	c := moneyContract()
	c.LastUpdated = daysAgo(45)
	if cls := Classify(c, today); cls.BlockReason != domain.BlockMoney || cls.DelayDays != 15 {
		t.Fatalf("money should overwrite silent: %+v", cls)
	}

	c.MaterialStatus = domain.MaterialMissing
	c.ProductionStartDate = daysFromNow(20)
	if cls := Classify(c, today); cls.BlockReason != domain.BlockMoney {
		t.Fatalf("materials outside the buffer must not apply: %+v", cls)
	}

	c.ProductionStartDate = daysFromNow(14)
	if cls := Classify(c, today); cls.BlockReason != domain.BlockMaterials || cls.DelayDays != 0 {
		t.Fatalf("materials should overwrite money: %+v", cls)
	}
}

func TestClassifyLeadTime(t *testing.T) {
	t.Parallel()

	production := healthyContract("p")
	production.ProductionEndDate = daysAgo(4)
	production.DueDate = daysAgo(2)
	cls := Classify(production, today)
	if cls.Stage != domain.StageProduction || cls.DelayDays != 4 || cls.BlockReason != domain.BlockLeadTime || cls.IsBlocker {
		t.Fatalf("unexpected production overrun: %+v", cls)
	}

	shipping := healthyContract("s")
	shipping.Status = domain.StatusPending
	shipping.ProductionEndDate = daysAgo(4)
	shipping.DueDate = daysAgo(2)
	cls = Classify(shipping, today)
	if cls.Stage != domain.StageShipping || cls.DelayDays != 2 || cls.BlockReason != domain.BlockLeadTime {
		t.Fatalf("unexpected shipping overrun: %+v", cls)
	}

	blocked := moneyContract()
	blocked.DueDate = daysAgo(30)
	cls = Classify(blocked, today)
	if cls.BlockReason != domain.BlockMoney || cls.DelayDays != 15 {
		t.Fatalf("blocker must outrank delay: %+v", cls)
	}
}

func TestClassifyMaterialsAfterStartNeverNegative(t *testing.T) {
	t.Parallel()

	c := materialContract()
	c.ProductionStartDate = daysAgo(3)
	if cls := Classify(c, today); cls.DelayDays != 17 {
		t.Fatalf("expected 17 days, got %+v", cls)
	}

	empty := Classify(domain.Contract{ID: "empty"}, today)
	if empty.DelayDays != 0 || empty.IsBlocker || empty.BlockReason != domain.BlockNone {
		t.Fatalf("empty contract should be normal: %+v", empty)
	}
}

func TestClassifyWithCustomOrder(t *testing.T) {
	t.Parallel()

	reversed := []Rule{DefaultRules[1], DefaultRules[0]}
	c := moneyContract()
	c.LastUpdated = daysAgo(45)
	if cls := ClassifyWith(reversed, c, today); cls.BlockReason != domain.BlockSilent {
		t.Fatalf("last applicable rule should win: %+v", cls)
	}
}

func TestCalculateKPIsFixture(t *testing.T) {
	t.Parallel()

	kpis := CalculateKPIs(fixture(), today)
	if kpis.Payment.Value != 1 || kpis.Material.Value != 1 {
		t.Fatalf("unexpected payment/material: %+v", kpis)
	}
	if kpis.LeadTime.Value != 2 || kpis.LeadTime.Total != 5 {
		t.Fatalf("unexpected lead time: %+v", kpis.LeadTime)
	}
	if kpis.Data.Value != 0 {
		t.Fatalf("unexpected data issues: %+v", kpis.Data)
	}
	if ids := kpis.All(); len(ids) != 4 || ids[0].ID != CategoryLeadTime || ids[3].ID != CategoryData {
		t.Fatalf("unexpected KPI order: %+v", ids)
	}
}

func TestCalculateKPIsIndependentPredicates(t *testing.T) {
	t.Parallel()

	preProd := domain.Contract{
		ID: "pre", Status: domain.StatusPending, SigningDate: daysAgo(25),
		DepositStatus: domain.PaymentPaid, PreProdPaymentStatus: domain.PaymentUnpaid,
		MaterialStatus: domain.MaterialPartial, ProductionStartDate: daysFromNow(2),
	}
	completed := domain.Contract{
		ID: "done", Status: domain.StatusCompleted, SigningDate: daysAgo(25),
		DepositStatus: domain.PaymentUnpaid, StartDate: daysFromNow(5), DueDate: daysFromNow(1),
	}

	kpis := CalculateKPIs([]domain.Contract{preProd, completed}, today)
	if kpis.Payment.Value != 1 {
		t.Fatalf("pre-production payment should count: %+v", kpis.Payment)
	}
	if kpis.Material.Value != 1 {
		t.Fatalf("partial materials should count: %+v", kpis.Material)
	}
	if kpis.Data.Value != 1 {
		t.Fatalf("completed contract has two data issues and counts once: %+v", kpis.Data)
	}

	// The classifier itself does not flag the pre-production payment.
	if cls := Classify(preProd, today); cls.IsBlocker {
		t.Fatalf("classifier should not block: %+v", cls)
	}
}

func TestGetKeyContractsExcludesHealthy(t *testing.T) {
	t.Parallel()

	rows := GetKeyContracts(fixture(), today, "")
	if len(rows) != 3 {
		t.Fatalf("expected 3 key contracts, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Contract.ID == "healthy-1" || row.Contract.ID == "healthy-2" {
			t.Fatalf("healthy contract listed: %s", row.Contract.ID)
		}
		if row.Kind != KindBlocker {
			t.Fatalf("expected blocker kind for %s", row.Contract.ID)
		}
	}
	if rows[0].Contract.ID != "money" || rows[1].Contract.ID != "silent" || rows[2].Contract.ID != "material" {
		t.Fatalf("unexpected order: %s %s %s", rows[0].Contract.ID, rows[1].Contract.ID, rows[2].Contract.ID)
	}
	if rows[0].DaysSinceSigning != 18 || rows[0].DaysSinceUpdate != 2 {
		t.Fatalf("unexpected ages: %+v", rows[0])
	}
}

func TestGetKeyContractsSortsByDelay(t *testing.T) {
	t.Parallel()

	rows := GetKeyContracts([]domain.Contract{materialContract(), moneyContract()}, today, "")
	if len(rows) != 2 || rows[0].Classification.DelayDays != 15 || rows[1].Classification.DelayDays != 9 {
		t.Fatalf("unexpected ranking: %+v", rows)
	}
}

func TestGetKeyContractsFilters(t *testing.T) {
	t.Parallel()

	contracts := fixture()
	completed := moneyContract()
	completed.ID = "completed"
	completed.Status = domain.StatusCompleted
	contracts = append(contracts, completed)

	cases := map[Category][]string{
		CategoryPayment:  {"money"},
		CategoryMaterial: {"material"},
		CategoryLeadTime: {"money", "silent", "material"},
		CategoryData:     nil,
		"unknown":        nil,
	}
	for filter, want := range cases {
		rows := GetKeyContracts(contracts, today, filter)
		if len(rows) != len(want) {
			t.Fatalf("filter %s: expected %d rows, got %d", filter, len(want), len(rows))
		}
		for i, id := range want {
			if rows[i].Contract.ID != id {
				t.Fatalf("filter %s: row %d = %s, want %s", filter, i, rows[i].Contract.ID, id)
			}
		}
	}
}

func TestGetKeyContractsTruncates(t *testing.T) {
	t.Parallel()

	var contracts []domain.Contract
	for i := 0; i < 30; i++ {
		c := moneyContract()
		c.ID = string(rune('a' + i))
		c.SigningDate = daysAgo(4 + i)
		contracts = append(contracts, c)
	}

	rows := GetKeyContracts(contracts, today, "")
	if len(rows) != KeyContractLimit {
		t.Fatalf("expected %d rows, got %d", KeyContractLimit, len(rows))
	}
	if rows[0].Classification.DelayDays != 30 || rows[KeyContractLimit-1].Classification.DelayDays != 11 {
		t.Fatalf("unexpected window: first=%d last=%d", rows[0].Classification.DelayDays, rows[KeyContractLimit-1].Classification.DelayDays)
	}
}

func TestGetZombieInventory(t *testing.T) {
	t.Parallel()

	var contracts []domain.Contract
	for i := 0; i < 7; i++ {
		c := silentContract()
		c.ID = string(rune('a' + i))
		c.LastUpdated = daysAgo(31 + i)
		c.Value = decimal.NewFromInt(int64(100 * (i + 1)))
		contracts = append(contracts, c)
	}
	done := silentContract()
	done.Status = domain.StatusCompleted
	fresh := silentContract()
	fresh.LastUpdated = daysAgo(30)
	contracts = append(contracts, done, fresh, domain.Contract{ID: "never-updated"})

	stats := GetZombieInventory(contracts, today, nil)
	if stats.Count != 7 {
		t.Fatalf("expected 7 zombies, got %d", stats.Count)
	}
	if !stats.TotalValue.Equal(decimal.NewFromInt(2800)) {
		t.Fatalf("unexpected total %s", stats.TotalValue)
	}
	if len(stats.Items) != ZombieLimit || stats.Items[0].Days != 37 || stats.Items[4].Days != 33 {
		t.Fatalf("unexpected items: %+v", stats.Items)
	}

	flat := GetZombieInventory(contracts, today, func(domain.Contract) decimal.Decimal { return decimal.NewFromInt(10) })
	if !flat.TotalValue.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("injected value source ignored: %s", flat.TotalValue)
	}
}

func TestGetDataQualityStats(t *testing.T) {
	t.Parallel()

	bad := domain.Contract{ID: "bad", ContractNo: "C-B", StartDate: daysFromNow(10), DueDate: daysFromNow(1)}
	prod := domain.Contract{ID: "prod", Status: domain.StatusProduction, ProductionStartDate: daysFromNow(3), ProductionEndDate: daysFromNow(1)}
	contracts := []domain.Contract{bad, prod, healthyContract("h1"), healthyContract("h2")}

	stats := GetDataQualityStats(contracts)
	if stats.Score != 50 || stats.Good != 2 || len(stats.Issues) != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Issues[0].Issue != IssueStartAfterDue || stats.Issues[1].Issue != IssueProductionEndBeforeRun {
		t.Fatalf("unexpected issues: %+v", stats.Issues)
	}

	if empty := GetDataQualityStats(nil); empty.Score != 100 {
		t.Fatalf("empty set should score 100, got %d", empty.Score)
	}
}

func TestStatusCounts(t *testing.T) {
	t.Parallel()

	counts := StatusCounts(fixture())
	if counts[domain.StatusPending] != 3 || counts[domain.StatusProduction] != 2 || counts[domain.StatusCompleted] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
