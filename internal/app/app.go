package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ContractTracker/internal/config"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/infrastructure/api"
	"ContractTracker/internal/infrastructure/importer"
	"ContractTracker/internal/infrastructure/scheduler"
	"ContractTracker/internal/infrastructure/storage"
	"ContractTracker/internal/infrastructure/telegram"
	"ContractTracker/internal/logging"
	"ContractTracker/internal/ports"
	"ContractTracker/internal/source"
	"ContractTracker/internal/store"
	"ContractTracker/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB

	Store     *store.Store
	Planner   *usecase.Planner
	Digest    *usecase.Digest
	Importer  *usecase.Importer
	Scheduler *usecase.Scheduler
}

// New opens the state repository and builds every use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	baseLogger.Debug("configuration loaded", "config", cfg.String())

	a := &Application{cfg: cfg, logger: baseLogger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, repo, baseLogger.With("component", "store"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if machines := machinesFromConfig(cfg.Machines); len(machines) > 0 {
		if err := st.SyncMachines(ctx, machines); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed machines: %w", err)
		}
	}
	a.Store = st

	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)

	registry := source.NewRegistry()
	registry.Register(apiClient)
	registry.Register(importer.NewHTMLRegister(nil))
	contracts := importer.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	var machines ports.MachineSource
	if hasAPISource(cfg.Sources) {
		machines = apiClient
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram, nil)
	}

	a.Planner = usecase.NewPlanner(st, baseLogger.With("component", "planner"))
	a.Importer = usecase.NewImporter(contracts, machines, st, baseLogger.With("component", "importer"))
	a.Digest = usecase.NewDigest(usecase.DigestDeps{
		Contracts: st,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "digest"),
	})
	a.Scheduler = usecase.NewScheduler(
		scheduler.NewTickerScheduler(cfg.Scheduler.Interval),
		a.Digest,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler"),
	)

	return a, nil
}

// Today is the current calendar day in the configured timezone.
func (a *Application) Today() time.Time {
	return domain.DateOf(time.Now().In(a.cfg.Scheduler.Location()))
}

// WindowDays is the configured matrix width.
func (a *Application) WindowDays() int {
	return a.cfg.Dashboard.WindowDays
}

// Logger exposes the base logger for command output.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Close releases the database connection, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *Application) openRepository(ctx context.Context) (ports.StateRepository, error) {
	driver := a.cfg.Database.Driver
	if driver == storage.DriverMemory {
		a.logger.Warn("using in-memory state, nothing will be persisted")
		return storage.NewMemoryRepository(ports.State{}), nil
	}

	db, err := storage.OpenDB(ctx, driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	a.db = db
	return storage.NewSQLRepository(db, storage.PlaceholderFor(driver)), nil
}

func machinesFromConfig(cfg []config.MachineConfig) []domain.Machine {
	machines := make([]domain.Machine, 0, len(cfg))
	for _, m := range cfg {
		if m.ID == "" {
			continue
		}
		machines = append(machines, domain.Machine{ID: m.ID, Name: m.Name, Room: m.Room})
	}
	return machines
}

func hasAPISource(sources []config.SourceConfig) bool {
	for _, src := range sources {
		if src.Kind == config.SourceKindAPI {
			return true
		}
	}
	return false
}
