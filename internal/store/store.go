// Package store owns committed schedule entries and is the single writer of
// each contract's scheduled quantity and status.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
)

var _ ports.ContractSource = (*Store)(nil)

// Store keeps the schedule state in memory and writes every change through
// the repository before publishing it.
type Store struct {
	mu     sync.RWMutex
	repo   ports.StateRepository
	logger *slog.Logger
	newID  func() string

	contracts []domain.Contract
	machines  []domain.Machine
	schedules []domain.ScheduleEntry
}

// Option tweaks a Store at construction time.
type Option func(*Store)

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Open loads the persisted state and returns a ready store.
func Open(ctx context.Context, repo ports.StateRepository, logger *slog.Logger, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("state repository is not configured")
	}

	s := &Store{
		repo:   repo,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	s.contracts = state.Contracts
	s.machines = state.Machines
	s.schedules = state.Schedules

	s.debug("store opened", "contracts", len(s.contracts), "machines", len(s.machines), "schedules", len(s.schedules))
	return s, nil
}

// Commit stores a new entry and books its total on the owning contract. The
// contract is moved to Production whatever its previous status was.
func (s *Store) Commit(ctx context.Context, entry domain.NewScheduleEntry) (domain.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.contractIndex(entry.ContractID)
	if idx < 0 {
		return domain.ScheduleEntry{}, fmt.Errorf("commit schedule for contract %s: %w", entry.ContractID, domain.ErrNotFound)
	}

	committed := domain.ScheduleEntry{
		ID:              s.newID(),
		ContractID:      entry.ContractID,
		MachineID:       entry.MachineID,
		StartDate:       domain.DateOf(entry.StartDate),
		EndDate:         domain.DateOf(entry.EndDate),
		DailyQuantities: append([]domain.DailyAllocation(nil), entry.DailyQuantities...),
		TotalScheduled:  domain.SumAllocations(entry.DailyQuantities),
		Notes:           entry.Notes,
	}

	next := s.snapshotLocked()
	next.Schedules = append(next.Schedules, committed)

	contract := &next.Contracts[idx]
	contract.ScheduledQuantity += committed.TotalScheduled
	contract.Status = domain.StatusProduction
	if contract.ScheduledQuantity > contract.TotalQuantity {
		s.warn("contract over-scheduled", "contract", contract.ID, "scheduled", contract.ScheduledQuantity, "total", contract.TotalQuantity)
	}

	if err := s.publishLocked(ctx, next); err != nil {
		return domain.ScheduleEntry{}, err
	}

	s.debug("schedule committed", "schedule", committed.ID, "contract", committed.ContractID, "machine", committed.MachineID, "total", committed.TotalScheduled)
	return cloneEntry(committed), nil
}

// Remove deletes an entry and releases its quantity from the owning contract.
// Unknown IDs leave the state untouched and report domain.ErrNotFound.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := -1
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("remove schedule %s: %w", id, domain.ErrNotFound)
	}

	removed := s.schedules[pos]
	next := s.snapshotLocked()
	next.Schedules = append(next.Schedules[:pos], next.Schedules[pos+1:]...)

	if idx := s.contractIndex(removed.ContractID); idx >= 0 {
		contract := &next.Contracts[idx]
		contract.ScheduledQuantity -= removed.TotalScheduled
		if contract.ScheduledQuantity < 0 {
			contract.ScheduledQuantity = 0
		}
		if contract.ScheduledQuantity > 0 {
			contract.Status = domain.StatusProduction
		} else {
			contract.Status = domain.StatusPending
		}
	}

	if err := s.publishLocked(ctx, next); err != nil {
		return err
	}

	s.debug("schedule removed", "schedule", id, "contract", removed.ContractID, "released", removed.TotalScheduled)
	return nil
}

// SyncContracts upserts contracts from an upstream source. Known contracts keep
// the scheduled quantity and status booked by this store.
func (s *Store) SyncContracts(ctx context.Context, contracts []domain.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshotLocked()
	index := make(map[string]int, len(next.Contracts))
	for i, c := range next.Contracts {
		index[c.ID] = i
	}
	for _, incoming := range contracts {
		if idx, ok := index[incoming.ID]; ok {
			incoming.ScheduledQuantity = next.Contracts[idx].ScheduledQuantity
			incoming.Status = next.Contracts[idx].Status
			next.Contracts[idx] = incoming
			continue
		}
		index[incoming.ID] = len(next.Contracts)
		next.Contracts = append(next.Contracts, incoming)
	}

	if err := s.publishLocked(ctx, next); err != nil {
		return err
	}
	s.debug("contracts synced", "incoming", len(contracts), "total", len(next.Contracts))
	return nil
}

// SyncMachines upserts machine reference data.
func (s *Store) SyncMachines(ctx context.Context, machines []domain.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshotLocked()
	for _, incoming := range machines {
		replaced := false
		for i := range next.Machines {
			if next.Machines[i].ID == incoming.ID {
				next.Machines[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			next.Machines = append(next.Machines, incoming)
		}
	}

	return s.publishLocked(ctx, next)
}

// Contracts returns a copy of all contracts.
func (s *Store) Contracts() []domain.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Contract(nil), s.contracts...)
}

// FetchContracts lets the store act as a ports.ContractSource.
func (s *Store) FetchContracts(_ context.Context) ([]domain.Contract, error) {
	return s.Contracts(), nil
}

// Contract looks up one contract.
func (s *Store) Contract(id string) (domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.contractIndex(id); idx >= 0 {
		return s.contracts[idx], nil
	}
	return domain.Contract{}, fmt.Errorf("contract %s: %w", id, domain.ErrNotFound)
}

// Machines returns a copy of all machines.
func (s *Store) Machines() []domain.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Machine(nil), s.machines...)
}

// Machine looks up one machine.
func (s *Store) Machine(id string) (domain.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.machines {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Machine{}, fmt.Errorf("machine %s: %w", id, domain.ErrNotFound)
}

// Schedules returns a copy of all entries in commit order.
func (s *Store) Schedules() []domain.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScheduleEntry, len(s.schedules))
	for i, entry := range s.schedules {
		out[i] = cloneEntry(entry)
	}
	return out
}

// SchedulesForContract returns the entries booked for one contract.
func (s *Store) SchedulesForContract(contractID string) []domain.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScheduleEntry
	for _, entry := range s.schedules {
		if entry.ContractID == contractID {
			out = append(out, cloneEntry(entry))
		}
	}
	return out
}

// Rooms lists the distinct machine rooms in alphabetical order.
func (s *Store) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	var rooms []string
	for _, m := range s.machines {
		if _, ok := seen[m.Room]; ok {
			continue
		}
		seen[m.Room] = struct{}{}
		rooms = append(rooms, m.Room)
	}
	sort.Strings(rooms)
	return rooms
}

func (s *Store) contractIndex(id string) int {
	for i := range s.contracts {
		if s.contracts[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the state so a failed save cannot leak half-applied
// changes. Contract and machine order is preserved so indexes stay valid.
func (s *Store) snapshotLocked() ports.State {
	return ports.State{
		Contracts: append([]domain.Contract(nil), s.contracts...),
		Machines:  append([]domain.Machine(nil), s.machines...),
		Schedules: append([]domain.ScheduleEntry(nil), s.schedules...),
	}
}

func (s *Store) publishLocked(ctx context.Context, next ports.State) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.contracts = next.Contracts
	s.machines = next.Machines
	s.schedules = next.Schedules
	return nil
}

func cloneEntry(entry domain.ScheduleEntry) domain.ScheduleEntry {
	entry.DailyQuantities = append([]domain.DailyAllocation(nil), entry.DailyQuantities...)
	return entry
}

func (s *Store) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
