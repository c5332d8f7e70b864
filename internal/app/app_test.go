package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ContractTracker/internal/config"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/logging"
	"ContractTracker/internal/usecase"
)

func contractsAPI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contracts/":
			_, _ = w.Write([]byte(`[{"contract_id":"c1","contract_number":"HT-1","status":"pending scheduling","products":[{"product_name":"Sachet","total_quantity":1000}]}]`))
		case "/production-lines/production-line-mapping":
			_, _ = w.Write([]byte(`[{"production_line_category_name":"Stick Room","production_lines":[{"production_line_id":"st-1","production_line_name":"ST-1"}]}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, apiURL string) config.Config {
	t.Helper()
	return config.Config{
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "tracker.db")},
		Scheduler: config.SchedulerConfig{Interval: time.Hour},
		Dashboard: config.DashboardConfig{WindowDays: 7},
		API:       config.APIConfig{BaseURL: apiURL, Timeout: time.Second},
		Sources:   []config.SourceConfig{{Name: "erp", Kind: config.SourceKindAPI, URL: apiURL}},
		Machines:  []config.MachineConfig{{ID: "sachet-1", Name: "Sachet Line 1", Room: "Square Sachet Room"}},
	}
}

func TestApplicationImportPlanAndReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server := contractsAPI(t)
	cfg := testConfig(t, server.URL)
	logger := logging.New("error")

	application, err := New(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	result, err := application.Importer.Import(ctx)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Contracts != 1 || result.Machines != 1 {
		t.Fatalf("unexpected import result %+v", result)
	}
	if rooms := application.Store.Rooms(); len(rooms) != 2 {
		t.Fatalf("expected configured and imported rooms, got %v", rooms)
	}

	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)
	entry, err := application.Planner.Plan(ctx, usecase.PlanRequest{
		ContractID:  "c1",
		MachineID:   "sachet-1",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 4),
		DailyTarget: 100,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := application.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	c, err := reopened.Store.Contract("c1")
	if err != nil {
		t.Fatalf("contract after reopen: %v", err)
	}
	if c.ScheduledQuantity != 500 || c.Status != domain.StatusProduction {
		t.Fatalf("unexpected persisted contract: %+v", c)
	}
	if schedules := reopened.Store.Schedules(); len(schedules) != 1 || schedules[0].ID != entry.ID {
		t.Fatalf("unexpected persisted schedules: %+v", schedules)
	}

	matrix := reopened.Planner.Matrix("Square Sachet Room", start, reopened.WindowDays())
	if len(matrix.Columns) != 7 || !matrix.Rows[0].Cells[0].Occupied() {
		t.Fatalf("unexpected matrix %+v", matrix)
	}
}

func TestApplicationMemoryDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t, "")
	cfg.Database.Driver = "memory"

	application, err := New(ctx, cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	if len(application.Store.Machines()) != 1 {
		t.Fatalf("configured machines should be seeded")
	}
	if _, err := application.Planner.Plan(ctx, usecase.PlanRequest{
		ContractID:      "ghost",
		MachineID:       "sachet-1",
		StartDate:       time.Now(),
		EndDate:         time.Now(),
		DailyTarget:     1,
		IncludeWeekends: true,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	report, err := application.Digest.Build(ctx, application.Today(), "")
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	if report.DataQuality.Score != 100 || len(report.KeyContracts) != 0 {
		t.Fatalf("unexpected empty report %+v", report)
	}
}

func TestApplicationRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	cfg.Database.Driver = "oracle"
	if _, err := New(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
