// Package server exposes the provider layer over HTTP so a browser
// extension can reach the vendors without holding their credentials.
//
// Information Hiding:
// - Live provider instances and their credentials stay in process
// - Vendor failures leave as {error, kind, category} only
// - Router and middleware setup hidden behind NewRouter

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/richinex/llmbridge/llm"
)

// ProviderFactory builds an uninitialized provider for a provider type.
type ProviderFactory func(llm.ProviderType, llm.Config) (llm.Provider, error)

// DefaultFactory builds providers through llm.CreateProvider with the given options.
func DefaultFactory(opts ...llm.Option) ProviderFactory {
	return func(pt llm.ProviderType, cfg llm.Config) (llm.Provider, error) {
		return llm.CreateProvider(pt, cfg, opts...)
	}
}

// Registry holds the providers initialized at startup. Once the server
// is serving it is only read.
type Registry struct {
	mu        sync.RWMutex
	providers map[llm.ProviderType]llm.Provider
	create    ProviderFactory
}

// NewRegistry creates an empty registry that builds providers with create.
func NewRegistry(create ProviderFactory) *Registry {
	if create == nil {
		create = DefaultFactory()
	}
	return &Registry{
		providers: make(map[llm.ProviderType]llm.Provider),
		create:    create,
	}
}

// Add registers a provider that has already been initialized.
func (r *Registry) Add(p llm.Provider) error {
	pt, err := llm.ParseProviderType(p.Name())
	if err != nil {
		return err
	}
	if !p.Initialized() {
		return fmt.Errorf("provider %s is not initialized", pt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[pt] = p
	return nil
}

// InitializeAll creates and initializes one provider per config that carries
// credentials. Providers that fail are skipped and their errors joined.
func (r *Registry) InitializeAll(ctx context.Context, configs map[llm.ProviderType]llm.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	types := make([]llm.ProviderType, 0, len(configs))
	for pt := range configs {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var errs []error
	for _, pt := range types {
		cfg := configs[pt]
		if cfg.Credentials.IsZero() {
			continue
		}
		p, err := r.initialize(ctx, pt, cfg)
		if err != nil {
			logger.Warn("provider unavailable", "provider", pt, "error", err)
			errs = append(errs, err)
			continue
		}
		r.mu.Lock()
		r.providers[pt] = p
		r.mu.Unlock()
		logger.Info("provider ready", "provider", pt, "model", p.Model())
	}
	return errors.Join(errs...)
}

// Get returns the live provider for id. An id naming a known provider that
// is not configured here yields a not_initialized error.
func (r *Registry) Get(id string) (llm.Provider, error) {
	pt, err := llm.ParseProviderType(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	p, ok := r.providers[pt]
	r.mu.RUnlock()
	if !ok {
		return nil, &llm.Error{
			Kind:     llm.KindNotInitialized,
			Provider: pt.String(),
			Message:  "provider is not configured on this server",
		}
	}
	return p, nil
}

// Validate runs the offline credential rules and a connectivity probe
// against a throwaway instance built from cfg. Live providers are untouched.
func (r *Registry) Validate(ctx context.Context, id string, cfg llm.Config) error {
	pt, err := llm.ParseProviderType(id)
	if err != nil {
		return err
	}
	_, err = r.initialize(ctx, pt, cfg)
	return err
}

// Live returns the configured provider types in name order.
func (r *Registry) Live() []llm.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]llm.ProviderType, 0, len(r.providers))
	for pt := range r.providers {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *Registry) initialize(ctx context.Context, pt llm.ProviderType, cfg llm.Config) (llm.Provider, error) {
	if err := llm.ValidateConfig(pt, cfg); err != nil {
		return nil, err
	}
	p, err := r.create(pt, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.Initialize(ctx, cfg.Credentials); err != nil {
		return nil, err
	}
	return p, nil
}
