package scheduling

import (
	"time"

	"ContractTracker/internal/domain"
)

// DefaultWindowDays is the width of the matrix when no window is requested.
const DefaultWindowDays = 14

// Column is one day of the matrix. Weekend is a display hint only.
type Column struct {
	Date    time.Time
	Weekend bool
}

// Cell is the occupation of a machine on one day. Empty cells have a nil Entry.
type Cell struct {
	Date       time.Time
	Entry      *domain.ScheduleEntry
	ContractNo string
	Quantity   int
}

// Occupied reports whether something is planned in the cell.
func (c Cell) Occupied() bool {
	return c.Entry != nil
}

// Row is one machine across the window.
type Row struct {
	Machine domain.Machine
	Cells   []Cell
}

// Matrix is the room view consumed by the presentation layer.
type Matrix struct {
	Room    string
	Columns []Column
	Rows    []Row
}

// Project maps committed schedules onto the machines of one room for
// windowDays days starting at windowStart. When several entries cover the same
// cell the first one in schedules order is shown.
func Project(room string, machines []domain.Machine, schedules []domain.ScheduleEntry, contracts []domain.Contract, windowStart time.Time, windowDays int) Matrix {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	first := domain.DateOf(windowStart)
	columns := make([]Column, windowDays)
	for i := range columns {
		day := first.AddDate(0, 0, i)
		columns[i] = Column{Date: day, Weekend: domain.IsWeekend(day)}
	}

	contractNo := make(map[string]string, len(contracts))
	for _, c := range contracts {
		contractNo[c.ID] = c.ContractNo
	}

	matrix := Matrix{Room: room, Columns: columns}
	for _, machine := range machines {
		if machine.Room != room {
			continue
		}

		row := Row{Machine: machine, Cells: make([]Cell, len(columns))}
		for i, col := range columns {
			row.Cells[i] = cellFor(machine.ID, col.Date, schedules, contractNo)
		}
		matrix.Rows = append(matrix.Rows, row)
	}

	return matrix
}

func cellFor(machineID string, day time.Time, schedules []domain.ScheduleEntry, contractNo map[string]string) Cell {
	cell := Cell{Date: day}
	for i := range schedules {
		entry := &schedules[i]
		if entry.MachineID != machineID {
			continue
		}
		qty := entry.QuantityOn(day)
		if qty <= 0 {
			continue
		}
		cell.Entry = entry
		cell.Quantity = qty
		cell.ContractNo = contractNo[entry.ContractID]
		return cell
	}
	return cell
}

// WeekStart returns the Monday of the ISO week containing day.
func WeekStart(day time.Time) time.Time {
	d := domain.DateOf(day)
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	return d.AddDate(0, 0, -offset)
}
