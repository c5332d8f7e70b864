package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/scheduling"
	"ContractTracker/internal/store"
)

// ErrNothingToCommit is returned when a plan expands to no production days.
var ErrNothingToCommit = errors.New("schedule has no production days")

// PlanRequest is what an operator fills in to schedule a contract.
type PlanRequest struct {
	ContractID      string
	MachineID       string
	StartDate       time.Time
	EndDate         time.Time
	DailyTarget     int
	IncludeWeekends bool
	Overrides       map[string]int
	Notes           string
}

// Preview is the expanded plan shown before committing.
type Preview struct {
	Breakdown         []domain.DailyAllocation
	TotalScheduled    int
	RemainingQuantity int
}

// Planner turns plan requests into committed schedule entries.
type Planner struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlanner wires the planner to the schedule store.
func NewPlanner(s *store.Store, logger *slog.Logger) *Planner {
	return &Planner{store: s, logger: logger}
}

// Preview expands the request without touching the store. The contract and
// the machine must both be known.
func (p *Planner) Preview(req PlanRequest) (Preview, error) {
	contract, err := p.store.Contract(req.ContractID)
	if err != nil {
		return Preview{}, err
	}
	if _, err := p.store.Machine(req.MachineID); err != nil {
		return Preview{}, err
	}

	breakdown := scheduling.GenerateDailyBreakdown(req.StartDate, req.EndDate, req.DailyTarget, req.IncludeWeekends, req.Overrides)
	total := scheduling.TotalScheduled(breakdown)
	return Preview{
		Breakdown:         breakdown,
		TotalScheduled:    total,
		RemainingQuantity: contract.RemainingQuantity() - total,
	}, nil
}

// Plan expands and commits the request.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (domain.ScheduleEntry, error) {
	if req.DailyTarget < 0 {
		return domain.ScheduleEntry{}, fmt.Errorf("daily target must not be negative, got %d", req.DailyTarget)
	}
	for key, qty := range req.Overrides {
		if qty < 0 {
			return domain.ScheduleEntry{}, fmt.Errorf("override for %s must not be negative, got %d", key, qty)
		}
	}

	if _, err := p.store.Machine(req.MachineID); err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("plan: %w", err)
	}

	breakdown := scheduling.GenerateDailyBreakdown(req.StartDate, req.EndDate, req.DailyTarget, req.IncludeWeekends, req.Overrides)
	if len(breakdown) == 0 {
		return domain.ScheduleEntry{}, ErrNothingToCommit
	}

	entry, err := p.store.Commit(ctx, domain.NewScheduleEntry{
		ContractID:      req.ContractID,
		MachineID:       req.MachineID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		DailyQuantities: breakdown,
		Notes:           req.Notes,
	})
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("commit plan: %w", err)
	}

	p.info("schedule planned", "schedule", entry.ID, "contract", entry.ContractID, "days", len(breakdown), "total", entry.TotalScheduled)
	return entry, nil
}

// Unplan removes a committed entry.
func (p *Planner) Unplan(ctx context.Context, scheduleID string) error {
	if err := p.store.Remove(ctx, scheduleID); err != nil {
		return fmt.Errorf("remove plan: %w", err)
	}
	p.info("schedule removed", "schedule", scheduleID)
	return nil
}

// Matrix projects the store onto one room.
func (p *Planner) Matrix(room string, windowStart time.Time, windowDays int) scheduling.Matrix {
	return scheduling.Project(room, p.store.Machines(), p.store.Schedules(), p.store.Contracts(), windowStart, windowDays)
}

func (p *Planner) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
