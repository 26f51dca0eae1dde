package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/types"
)

type healthStub struct {
	stubProvider
	healthy bool
}

func (h *healthStub) Health(ctx context.Context) types.HealthStatus {
	if h.healthy {
		return types.Healthy("ok")
	}
	return types.Unhealthy("down")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := &stubProvider{name: "openai"}

	require.NoError(t, r.RegisterProvider(p))

	got, err := r.GetProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	assert.Equal(t, []string{"openai"}, r.ListProviders())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()

	err := r.RegisterProvider(nil)
	assert.Equal(t, ErrProviderInvalidInput, types.CodeOf(err))

	err = r.RegisterProvider(&stubProvider{name: ""})
	assert.Equal(t, ErrProviderInvalidInput, types.CodeOf(err))

	require.NoError(t, r.RegisterProvider(&stubProvider{name: "dup"}))
	err = r.RegisterProvider(&stubProvider{name: "dup"})
	assert.Equal(t, ErrProviderAlreadyExists, types.CodeOf(err))
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterProvider(&stubProvider{name: "gone"}))
	require.NoError(t, r.UnregisterProvider("gone"))

	_, err := r.GetProvider("gone")
	assert.Equal(t, ErrProviderNotFound, types.CodeOf(err))

	err = r.UnregisterProvider("never")
	assert.Equal(t, ErrProviderNotFound, types.CodeOf(err))
}

func TestRegistry_Health(t *testing.T) {
	ctx := context.Background()

	empty := NewRegistry()
	assert.True(t, empty.Health(ctx).IsUnhealthy())

	allHealthy := NewRegistry()
	require.NoError(t, allHealthy.RegisterProvider(&healthStub{stubProvider: stubProvider{name: "a"}, healthy: true}))
	require.NoError(t, allHealthy.RegisterProvider(&healthStub{stubProvider: stubProvider{name: "b"}, healthy: true}))
	assert.True(t, allHealthy.Health(ctx).IsHealthy())

	mixed := NewRegistry()
	require.NoError(t, mixed.RegisterProvider(&healthStub{stubProvider: stubProvider{name: "a"}, healthy: true}))
	require.NoError(t, mixed.RegisterProvider(&healthStub{stubProvider: stubProvider{name: "b"}, healthy: false}))
	assert.True(t, mixed.Health(ctx).IsDegraded())

	down := NewRegistry()
	require.NoError(t, down.RegisterProvider(&healthStub{stubProvider: stubProvider{name: "a"}, healthy: false}))
	assert.True(t, down.Health(ctx).IsUnhealthy())
}
