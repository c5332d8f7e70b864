package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus is the coarse lifecycle state tracked by the scheduler.
type ContractStatus string

const (
	StatusPending    ContractStatus = "Pending"
	StatusProduction ContractStatus = "Production"
	StatusCompleted  ContractStatus = "Completed"
)

// PaymentStatus describes a single payment milestone. Empty means unknown.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Paid"
	PaymentUnpaid PaymentStatus = "Unpaid"
)

// MaterialStatus describes raw-material readiness. Empty means unknown.
type MaterialStatus string

const (
	MaterialReady   MaterialStatus = "Ready"
	MaterialPartial MaterialStatus = "Partial"
	MaterialMissing MaterialStatus = "Missing"
)

// Contract is a manufacturing order with its lifecycle milestones.
// Optional dates are nil when the milestone has not been recorded.
type Contract struct {
	ID          string
	ContractNo  string
	Client      string
	ProductName string

	TotalQuantity     int
	ScheduledQuantity int
	Status            ContractStatus

	SigningDate          *time.Time
	StartDate            *time.Time
	ProductionStartDate  *time.Time
	ProductionEndDate    *time.Time
	DueDate              *time.Time
	ShippingDate         *time.Time
	LastUpdated          *time.Time
	DepositStatus        PaymentStatus
	PreProdPaymentStatus PaymentStatus
	MaterialStatus       MaterialStatus

	// Value is the persisted order value used by inventory views.
	Value decimal.Decimal
}

// RemainingQuantity is what is still left to schedule. It goes negative when
// the contract has been over-scheduled.
func (c Contract) RemainingQuantity() int {
	return c.TotalQuantity - c.ScheduledQuantity
}

// Machine is a production line placed in a room.
type Machine struct {
	ID   string
	Name string
	Room string
}
