package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
	"ContractTracker/internal/scheduling"
)

type fakeRepo struct {
	mu      sync.Mutex
	state   ports.State
	saveErr error
	saves   int
}

func (f *fakeRepo) Load(context.Context) (ports.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeRepo) Save(_ context.Context, state ports.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state = state
	f.saves++
	return nil
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return d
}

func sequentialIDs() Option {
	n := 0
	var mu sync.Mutex
	return WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("s%d", n)
	})
}

func openStore(t *testing.T, repo *fakeRepo) *Store {
	t.Helper()
	s, err := Open(context.Background(), repo, nil, sequentialIDs())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func seededRepo() *fakeRepo {
	return &fakeRepo{state: ports.State{
		Contracts: []domain.Contract{
			{ID: "c1", ContractNo: "C-001", TotalQuantity: 1000, ScheduledQuantity: 100, Status: domain.StatusPending},
			{ID: "c2", ContractNo: "C-002", TotalQuantity: 500, Status: domain.StatusCompleted},
		},
		Machines: []domain.Machine{
			{ID: "m1", Room: "Sachet"},
			{ID: "m2", Room: "Bottling"},
			{ID: "m3", Room: "Sachet"},
		},
	}}
}

func newEntry(t *testing.T, contractID string, qty int) domain.NewScheduleEntry {
	start, end := date(t, "2024-11-01"), date(t, "2024-11-03")
	return domain.NewScheduleEntry{
		ContractID:      contractID,
		MachineID:       "m1",
		StartDate:       start,
		EndDate:         end,
		DailyQuantities: scheduling.GenerateDailyBreakdown(start, end, qty, true, nil),
		Notes:           "first run",
	}
}

func TestCommitBooksQuantityAndStatus(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	s := openStore(t, repo)

	entry, err := s.Commit(context.Background(), newEntry(t, "c1", 100))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if entry.ID != "s1" || entry.TotalScheduled != 300 || len(entry.DailyQuantities) != 3 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	c, err := s.Contract("c1")
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	if c.ScheduledQuantity != 400 || c.Status != domain.StatusProduction {
		t.Fatalf("unexpected contract after commit: %+v", c)
	}
	if repo.saves != 1 || len(repo.state.Schedules) != 1 {
		t.Fatalf("expected state persisted once, saves=%d schedules=%d", repo.saves, len(repo.state.Schedules))
	}
}

func TestCommitOverwritesCompletedStatus(t *testing.T) {
	t.Parallel()

	s := openStore(t, seededRepo())
	if _, err := s.Commit(context.Background(), newEntry(t, "c2", 10)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	c, _ := s.Contract("c2")
	if c.Status != domain.StatusProduction {
		t.Fatalf("expected Production, got %s", c.Status)
	}
}

func TestCommitAllowsOverScheduling(t *testing.T) {
	t.Parallel()

	s := openStore(t, seededRepo())
	if _, err := s.Commit(context.Background(), newEntry(t, "c2", 1000)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	c, _ := s.Contract("c2")
	if c.ScheduledQuantity != 3000 || c.RemainingQuantity() != -2500 {
		t.Fatalf("unexpected quantities: %+v", c)
	}
}

func TestCommitUnknownContract(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	s := openStore(t, repo)

	_, err := s.Commit(context.Background(), newEntry(t, "missing", 10))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(s.Schedules()) != 0 || repo.saves != 0 {
		t.Fatalf("state changed on failed commit")
	}
}

func TestCommitThenRemoveRestoresQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, seededRepo())
	before, _ := s.Contract("c1")

	entry, err := s.Commit(ctx, newEntry(t, "c1", 77))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	after, _ := s.Contract("c1")
	if after.ScheduledQuantity != before.ScheduledQuantity {
		t.Fatalf("expected %d scheduled, got %d", before.ScheduledQuantity, after.ScheduledQuantity)
	}
	// 100 pre-existing units remain booked.
	if after.Status != domain.StatusProduction {
		t.Fatalf("expected Production, got %s", after.Status)
	}
	if len(s.Schedules()) != 0 {
		t.Fatalf("expected no schedules")
	}
}

func TestRemoveClampsAndResetsToPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seededRepo()
	repo.state.Schedules = []domain.ScheduleEntry{
		{ID: "legacy", ContractID: "c1", MachineID: "m1", TotalScheduled: 250},
	}
	s := openStore(t, repo)

	if err := s.Remove(ctx, "legacy"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c, _ := s.Contract("c1")
	if c.ScheduledQuantity != 0 || c.Status != domain.StatusPending {
		t.Fatalf("unexpected contract: %+v", c)
	}
}

func TestRemoveUnknownLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seededRepo()
	s := openStore(t, repo)
	if _, err := s.Commit(ctx, newEntry(t, "c1", 10)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	saves := repo.saves
	contracts := s.Contracts()

	err := s.Remove(ctx, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.saves != saves || len(s.Schedules()) != 1 {
		t.Fatalf("remove of unknown id touched state")
	}
	for i, c := range s.Contracts() {
		if c.ScheduledQuantity != contracts[i].ScheduledQuantity || c.Status != contracts[i].Status {
			t.Fatalf("contract %s changed", c.ID)
		}
	}
}

func TestFailedSaveKeepsPreviousState(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	repo.saveErr = errors.New("disk full")
	s := openStore(t, repo)

	if _, err := s.Commit(context.Background(), newEntry(t, "c1", 10)); err == nil {
		t.Fatalf("expected save error")
	}
	c, _ := s.Contract("c1")
	if c.ScheduledQuantity != 100 || c.Status != domain.StatusPending || len(s.Schedules()) != 0 {
		t.Fatalf("failed commit leaked: %+v", c)
	}
}

func TestConcurrentCommitsAreSerialised(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, seededRepo())

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Commit(ctx, newEntry(t, "c1", 1)); err != nil {
				t.Errorf("commit: %v", err)
			}
		}()
	}
	wg.Wait()

	c, _ := s.Contract("c1")
	if c.ScheduledQuantity != 100+workers*3 {
		t.Fatalf("lost updates: scheduled=%d", c.ScheduledQuantity)
	}
	if len(s.Schedules()) != workers {
		t.Fatalf("expected %d schedules, got %d", workers, len(s.Schedules()))
	}
}

func TestReadersReceiveCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, seededRepo())
	if _, err := s.Commit(ctx, newEntry(t, "c1", 5)); err != nil {
		t.Fatalf("commit: %v", err)
	}

	schedules := s.Schedules()
	schedules[0].DailyQuantities[0].Quantity = 9999
	contracts := s.Contracts()
	contracts[0].ScheduledQuantity = -1

	if s.Schedules()[0].DailyQuantities[0].Quantity != 5 {
		t.Fatalf("schedule copy leaked into store")
	}
	if c, _ := s.Contract("c1"); c.ScheduledQuantity == -1 {
		t.Fatalf("contract copy leaked into store")
	}
	if got := len(s.SchedulesForContract("c1")); got != 1 {
		t.Fatalf("expected 1 schedule for c1, got %d", got)
	}
}

func TestSyncContractsKeepsBookedFields(t *testing.T) {
	t.Parallel()

	s := openStore(t, seededRepo())
	err := s.SyncContracts(context.Background(), []domain.Contract{
		{ID: "c1", ContractNo: "C-001-R", TotalQuantity: 2000, ScheduledQuantity: 0, Status: domain.StatusCompleted},
		{ID: "c3", ContractNo: "C-003", TotalQuantity: 10, Status: domain.StatusPending},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	c1, _ := s.Contract("c1")
	if c1.ContractNo != "C-001-R" || c1.TotalQuantity != 2000 || c1.ScheduledQuantity != 100 || c1.Status != domain.StatusPending {
		t.Fatalf("unexpected synced contract: %+v", c1)
	}
	if _, err := s.Contract("c3"); err != nil {
		t.Fatalf("expected new contract: %v", err)
	}
	if _, err := s.Contract("c9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncMachinesAndRooms(t *testing.T) {
	t.Parallel()

	s := openStore(t, seededRepo())
	err := s.SyncMachines(context.Background(), []domain.Machine{
		{ID: "m2", Room: "Capsule"},
		{ID: "m4", Room: "Aardvark"},
	})
	if err != nil {
		t.Fatalf("sync machines: %v", err)
	}

	rooms := s.Rooms()
	want := []string{"Aardvark", "Capsule", "Sachet"}
	if len(rooms) != len(want) {
		t.Fatalf("unexpected rooms %v", rooms)
	}
	for i := range want {
		if rooms[i] != want[i] {
			t.Fatalf("unexpected rooms %v", rooms)
		}
	}
	if len(s.Machines()) != 4 {
		t.Fatalf("expected 4 machines, got %d", len(s.Machines()))
	}
	if m, err := s.Machine("m4"); err != nil || m.Room != "Aardvark" {
		t.Fatalf("unexpected machine lookup: %+v %v", m, err)
	}
	if _, err := s.Machine("m9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRequiresRepository(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error without repository")
	}
}
