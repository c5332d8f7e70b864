package source

import (
	"context"
	"fmt"
	"sort"

	"ContractTracker/internal/domain"
)

// Request carries everything a loader needs to read one configured source.
type Request struct {
	SourceName string
	URL        string
	Options    map[string]string
}

// Option returns a loader option or def when it is unset.
func (r Request) Option(key, def string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Loader reads contracts from one kind of upstream (contracts API, HTML
// register export, etc.).
type Loader interface {
	Kind() string
	Load(ctx context.Context, req Request) ([]domain.Contract, error)
}

// Registry keeps a mapping from source kinds to their loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: map[string]Loader{}}
}

// Register adds or replaces a loader implementation.
func (r *Registry) Register(loader Loader) {
	if r.loaders == nil {
		r.loaders = map[string]Loader{}
	}
	r.loaders[loader.Kind()] = loader
}

// Resolve returns a loader by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Loader, error) {
	if loader, ok := r.loaders[kind]; ok {
		return loader, nil
	}
	return nil, fmt.Errorf("source kind %s is not registered", kind)
}

// Kinds lists the registered kinds.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.loaders))
	for kind := range r.loaders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
