package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ContractTracker/internal/ports"
	"ContractTracker/internal/store"
)

// ImportResult counts what one import pulled in.
type ImportResult struct {
	Contracts int
	Machines  int
}

// Importer copies contracts and machines from upstream sources into the
// schedule store.
type Importer struct {
	contracts ports.ContractSource
	machines  ports.MachineSource
	store     *store.Store
	logger    *slog.Logger
}

// NewImporter wires upstream sources to the store. machines may be nil.
func NewImporter(contracts ports.ContractSource, machines ports.MachineSource, s *store.Store, logger *slog.Logger) *Importer {
	return &Importer{contracts: contracts, machines: machines, store: s, logger: logger}
}

// Import fetches and syncs machines, then contracts.
func (i *Importer) Import(ctx context.Context) (ImportResult, error) {
	var result ImportResult
	if i.contracts == nil {
		return result, fmt.Errorf("contract source is not configured")
	}

	if i.machines != nil {
		machines, err := i.machines.FetchMachines(ctx)
		if err != nil {
			return result, fmt.Errorf("fetch machines: %w", err)
		}
		if len(machines) > 0 {
			if err := i.store.SyncMachines(ctx, machines); err != nil {
				return result, fmt.Errorf("sync machines: %w", err)
			}
		}
		result.Machines = len(machines)
	}

	contracts, err := i.contracts.FetchContracts(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch contracts: %w", err)
	}
	if len(contracts) > 0 {
		if err := i.store.SyncContracts(ctx, contracts); err != nil {
			return result, fmt.Errorf("sync contracts: %w", err)
		}
	}
	result.Contracts = len(contracts)

	if i.logger != nil {
		i.logger.Info("import finished", "contracts", result.Contracts, "machines", result.Machines)
	}
	return result, nil
}
