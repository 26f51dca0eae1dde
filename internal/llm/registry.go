package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Registry manages LLM provider registration, discovery, and health
// monitoring. It provides a centralized registry for all LLM providers with
// thread-safe operations and built-in health aggregation.
type Registry interface {
	// RegisterProvider registers an LLM provider with the registry
	RegisterProvider(provider Provider) error

	// UnregisterProvider removes a provider from the registry by name
	UnregisterProvider(name string) error

	// GetProvider retrieves a provider by name
	GetProvider(name string) (Provider, error)

	// ListProviders returns the names of all registered providers
	ListProviders() []string

	// Health returns the overall health status of the registry.
	// Healthy when all providers are healthy, degraded when some are not,
	// unhealthy when all providers are unhealthy or none are registered.
	Health(ctx context.Context) types.HealthStatus
}

// DefaultRegistry implements Registry with thread-safe operations.
type DefaultRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new DefaultRegistry instance
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		providers: make(map[string]Provider),
	}
}

// RegisterProvider registers an LLM provider with the registry.
// Returns ErrProviderAlreadyExists if a provider with the same name is already
// registered, ErrProviderInvalidInput if the provider is nil or unnamed.
func (r *DefaultRegistry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return types.NewError(ErrProviderInvalidInput, "provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return types.NewError(ErrProviderInvalidInput, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return types.NewError(ErrProviderAlreadyExists, fmt.Sprintf("provider %q already registered", name))
	}

	r.providers[name] = provider

	return nil
}

// UnregisterProvider removes a provider from the registry by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *DefaultRegistry) UnregisterProvider(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	delete(r.providers, name)

	return nil
}

// GetProvider retrieves a provider by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *DefaultRegistry) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	return provider, nil
}

// ListProviders returns the names of all registered providers.
// The returned slice is sorted alphabetically for consistent ordering.
func (r *DefaultRegistry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Health returns the overall health status of the registry.
func (r *DefaultRegistry) Health(ctx context.Context) types.HealthStatus {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	if len(providers) == 0 {
		return types.Unhealthy("no providers registered")
	}

	healthy := 0
	var unhealthyNames []string
	for name, p := range providers {
		if p.Health(ctx).IsHealthy() {
			healthy++
		} else {
			unhealthyNames = append(unhealthyNames, name)
		}
	}

	switch {
	case healthy == len(providers):
		return types.Healthy(fmt.Sprintf("%d providers healthy", healthy))
	case healthy == 0:
		return types.Unhealthy("all providers unhealthy")
	default:
		sort.Strings(unhealthyNames)
		return types.Degraded(fmt.Sprintf("unhealthy providers: %v", unhealthyNames))
	}
}
