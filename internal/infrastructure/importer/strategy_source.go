package importer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ContractTracker/internal/config"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
	"ContractTracker/internal/source"
)

const maxParallelSources = 4

// StrategySource implements ContractSource via registered source loaders.
type StrategySource struct {
	registry *source.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.ContractSource = (*StrategySource)(nil)

// NewStrategySource wires the loader registry with config-defined sources.
func NewStrategySource(reg *source.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchContracts loads every configured source concurrently and merges the
// results in configuration order. A contract reported by several sources
// keeps the version of the last one, at the position it was first seen.
func (s *StrategySource) FetchContracts(ctx context.Context) ([]domain.Contract, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}

	s.debug("fetch contracts", "sources", len(s.sources))

	loaders := make([]source.Loader, len(s.sources))
	for i, src := range s.sources {
		loader, err := s.registry.Resolve(src.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		loaders[i] = loader
	}

	results := make([][]domain.Contract, len(s.sources))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelSources)
	for i, src := range s.sources {
		eg.Go(func() error {
			s.debug("process source", "source", src.Name, "kind", src.Kind)
			contracts, err := loaders[i].Load(egCtx, source.Request{
				SourceName: src.Name,
				URL:        src.URL,
				Options:    src.Options,
			})
			if err != nil {
				return fmt.Errorf("load source %s: %w", src.Name, err)
			}
			s.debug("source produced contracts", "source", src.Name, "count", len(contracts))
			results[i] = contracts
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var aggregated []domain.Contract
	index := map[string]int{}
	for _, contracts := range results {
		for _, c := range contracts {
			if pos, ok := index[c.ID]; ok {
				aggregated[pos] = c
				continue
			}
			index[c.ID] = len(aggregated)
			aggregated = append(aggregated, c)
		}
	}

	s.debug("strategy source done", "total_contracts", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
