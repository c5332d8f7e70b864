package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
)

// SQLRepository persists the schedule store state into Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.StateRepository = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB with the bind style of its driver.
func NewSQLRepository(db *sql.DB, placeholder sq.PlaceholderFormat) *SQLRepository {
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// maxBindVars is the placeholder budget of one statement, kept under the
// 999 variables older SQLite builds accept.
const maxBindVars = 999

var contractColumns = []string{
	"id", "contract_no", "client", "product_name",
	"total_quantity", "scheduled_quantity", "status",
	"signing_date", "start_date", "production_start_date", "production_end_date",
	"due_date", "shipping_date", "last_updated",
	"deposit_status", "pre_prod_payment_status", "material_status", "value",
}

// Load reads the full state ordered as it was saved.
func (r *SQLRepository) Load(ctx context.Context) (ports.State, error) {
	var state ports.State
	if r.db == nil {
		return state, nil
	}

	contracts, err := r.loadContracts(ctx)
	if err != nil {
		return state, err
	}
	machines, err := r.loadMachines(ctx)
	if err != nil {
		return state, err
	}
	schedules, err := r.loadSchedules(ctx)
	if err != nil {
		return state, err
	}

	state.Contracts = contracts
	state.Machines = machines
	state.Schedules = schedules
	return state, nil
}

// Save replaces the stored state in one transaction.
func (r *SQLRepository) Save(ctx context.Context, state ports.State) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := r.saveTx(ctx, tx, state); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SQLRepository) saveTx(ctx context.Context, tx *sql.Tx, state ports.State) error {
	for _, table := range []string{"schedule_days", "schedule_entries", "machines", "contracts"} {
		if _, err := r.builder.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	contracts := make([][]interface{}, 0, len(state.Contracts))
	for i, c := range state.Contracts {
		contracts = append(contracts, []interface{}{i, c.ID, c.ContractNo, c.Client, c.ProductName,
			c.TotalQuantity, c.ScheduledQuantity, string(c.Status),
			dateValue(c.SigningDate), dateValue(c.StartDate), dateValue(c.ProductionStartDate),
			dateValue(c.ProductionEndDate), dateValue(c.DueDate), dateValue(c.ShippingDate),
			dateValue(c.LastUpdated),
			string(c.DepositStatus), string(c.PreProdPaymentStatus), string(c.MaterialStatus),
			c.Value.String()})
	}
	if err := r.insertBatched(ctx, tx, "contracts", append([]string{"position"}, contractColumns...), contracts); err != nil {
		return err
	}

	machines := make([][]interface{}, 0, len(state.Machines))
	for i, m := range state.Machines {
		machines = append(machines, []interface{}{m.ID, i, m.Name, m.Room})
	}
	if err := r.insertBatched(ctx, tx, "machines", []string{"id", "position", "name", "room"}, machines); err != nil {
		return err
	}

	entries := make([][]interface{}, 0, len(state.Schedules))
	var days [][]interface{}
	for i, e := range state.Schedules {
		entries = append(entries, []interface{}{e.ID, i, e.ContractID, e.MachineID,
			domain.DateKey(e.StartDate), domain.DateKey(e.EndDate), e.TotalScheduled, e.Notes})
		for j, alloc := range e.DailyQuantities {
			days = append(days, []interface{}{e.ID, j, domain.DateKey(alloc.Date), alloc.Quantity})
		}
	}
	if err := r.insertBatched(ctx, tx, "schedule_entries",
		[]string{"id", "position", "contract_id", "machine_id", "start_date", "end_date", "total_scheduled", "notes"}, entries); err != nil {
		return err
	}
	return r.insertBatched(ctx, tx, "schedule_days", []string{"schedule_id", "position", "day", "quantity"}, days)
}

// insertBatched splits rows into multi-row INSERTs that stay under
// maxBindVars placeholders each.
func (r *SQLRepository) insertBatched(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	batch := maxBindVars / len(columns)
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		insert := r.builder.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			insert = insert.Values(row...)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table, start, end, err)
		}
	}
	return nil
}

func (r *SQLRepository) loadContracts(ctx context.Context) ([]domain.Contract, error) {
	rows, err := r.builder.Select(contractColumns...).From("contracts").OrderBy("position").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		var (
			c                                                     domain.Contract
			status, deposit, preProd, material, value             string
			signing, start, prodStart, prodEnd, due, ship, update sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ContractNo, &c.Client, &c.ProductName,
			&c.TotalQuantity, &c.ScheduledQuantity, &status,
			&signing, &start, &prodStart, &prodEnd, &due, &ship, &update,
			&deposit, &preProd, &material, &value); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}

		c.Status = domain.ContractStatus(status)
		c.DepositStatus = domain.PaymentStatus(deposit)
		c.PreProdPaymentStatus = domain.PaymentStatus(preProd)
		c.MaterialStatus = domain.MaterialStatus(material)

		dates := []struct {
			raw sql.NullString
			dst **time.Time
		}{
			{signing, &c.SigningDate}, {start, &c.StartDate}, {prodStart, &c.ProductionStartDate},
			{prodEnd, &c.ProductionEndDate}, {due, &c.DueDate}, {ship, &c.ShippingDate},
			{update, &c.LastUpdated},
		}
		for _, d := range dates {
			parsed, err := parseNullDate(d.raw)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", c.ID, err)
			}
			*d.dst = parsed
		}

		if c.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("contract %s value: %w", c.ID, err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return contracts, nil
}

func (r *SQLRepository) loadMachines(ctx context.Context) ([]domain.Machine, error) {
	rows, err := r.builder.Select("id", "name", "room").From("machines").OrderBy("position").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	var machines []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Room); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return machines, nil
}

func (r *SQLRepository) loadSchedules(ctx context.Context) ([]domain.ScheduleEntry, error) {
	rows, err := r.builder.
		Select("id", "contract_id", "machine_id", "start_date", "end_date", "total_scheduled", "notes").
		From("schedule_entries").OrderBy("position").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query schedule entries: %w", err)
	}

	var (
		schedules []domain.ScheduleEntry
		index     = map[string]int{}
	)
	for rows.Next() {
		var (
			e          domain.ScheduleEntry
			start, end string
		)
		if err := rows.Scan(&e.ID, &e.ContractID, &e.MachineID, &start, &end, &e.TotalScheduled, &e.Notes); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if e.StartDate, err = domain.ParseDate(start); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("schedule %s start: %w", e.ID, err)
		}
		if e.EndDate, err = domain.ParseDate(end); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("schedule %s end: %w", e.ID, err)
		}
		index[e.ID] = len(schedules)
		schedules = append(schedules, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}

	dayRows, err := r.builder.Select("schedule_id", "day", "quantity").From("schedule_days").
		OrderBy("schedule_id", "position").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query schedule days: %w", err)
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var (
			scheduleID, day string
			qty             int
		)
		if err := dayRows.Scan(&scheduleID, &day, &qty); err != nil {
			return nil, fmt.Errorf("scan schedule day: %w", err)
		}
		pos, ok := index[scheduleID]
		if !ok {
			continue
		}
		date, err := domain.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("schedule %s day: %w", scheduleID, err)
		}
		schedules[pos].DailyQuantities = append(schedules[pos].DailyQuantities, domain.DailyAllocation{Date: date, Quantity: qty})
	}
	if err := dayRows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return schedules, nil
}

func dateValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return domain.DateKey(*t)
}

func parseNullDate(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	parsed, err := domain.ParseDate(raw.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
