package ports

import (
	"context"
	"time"

	"ContractTracker/internal/domain"
)

// State is everything the schedule store persists.
type State struct {
	Contracts []domain.Contract
	Machines  []domain.Machine
	Schedules []domain.ScheduleEntry
}

// StateRepository loads and saves the schedule store state as a whole.
type StateRepository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// ContractSource pulls contracts from upstream systems (API, exports).
type ContractSource interface {
	FetchContracts(ctx context.Context) ([]domain.Contract, error)
}

// MachineSource pulls machine reference data (production lines by room).
type MachineSource interface {
	FetchMachines(ctx context.Context) ([]domain.Machine, error)
}

// Notifier streams the exception digest to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
