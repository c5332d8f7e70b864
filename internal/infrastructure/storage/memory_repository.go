package storage

import (
	"context"
	"sync"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
)

// MemoryRepository keeps the state in process memory. It backs tests and
// the demo mode of the CLI.
type MemoryRepository struct {
	mu    sync.Mutex
	state ports.State
	saves int
}

var _ ports.StateRepository = (*MemoryRepository)(nil)

// NewMemoryRepository seeds the repository with an initial state.
func NewMemoryRepository(seed ports.State) *MemoryRepository {
	return &MemoryRepository{state: cloneState(seed)}
}

// Load returns a copy of the stored state.
func (m *MemoryRepository) Load(_ context.Context) (ports.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state), nil
}

// Save replaces the stored state with a copy of state.
func (m *MemoryRepository) Save(_ context.Context, state ports.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(state)
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneState(s ports.State) ports.State {
	out := ports.State{
		Contracts: append([]domain.Contract(nil), s.Contracts...),
		Machines:  append([]domain.Machine(nil), s.Machines...),
		Schedules: make([]domain.ScheduleEntry, len(s.Schedules)),
	}
	for i, e := range s.Schedules {
		e.DailyQuantities = append([]domain.DailyAllocation(nil), e.DailyQuantities...)
		out.Schedules[i] = e
	}
	if len(s.Schedules) == 0 {
		out.Schedules = nil
	}
	return out
}
