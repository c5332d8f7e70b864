package domain

import (
	"fmt"
	"strings"
)

// ParseContractStatus accepts both the tracker's own statuses and the
// upstream workflow states ("pending scheduling", "pending shipping", ...).
func ParseContractStatus(raw string) (ContractStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "new", "pending preparation", "pending scheduling":
		return StatusPending, nil
	case "production", "pending production", "pending production complete",
		"pending shipping", "pending shipping quantity":
		return StatusProduction, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown contract status %q", raw)
	}
}

// ParsePaymentStatus maps a payment milestone. Only a received payment counts
// as paid; empty input stays unknown.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ""
	case "paid", "received":
		return PaymentPaid
	default:
		return PaymentUnpaid
	}
}

// ParseMaterialStatus accepts Ready/Partial/Missing in any case.
func ParseMaterialStatus(raw string) MaterialStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ready", "received":
		return MaterialReady
	case "partial":
		return MaterialPartial
	case "missing", "pending", "in transit", "overdue":
		return MaterialMissing
	default:
		return ""
	}
}

// MaterialStatusOf folds per-batch arrival states into one readiness value.
// No batches means unknown.
func MaterialStatusOf(arrivals []string) MaterialStatus {
	if len(arrivals) == 0 {
		return ""
	}
	received := 0
	for _, a := range arrivals {
		if ParseMaterialStatus(a) == MaterialReady {
			received++
		}
	}
	switch received {
	case len(arrivals):
		return MaterialReady
	case 0:
		return MaterialMissing
	default:
		return MaterialPartial
	}
}
