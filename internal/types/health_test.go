package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatus_Constructors(t *testing.T) {
	h := Healthy("connected")
	assert.True(t, h.IsHealthy())
	assert.False(t, h.IsDegraded())
	assert.Equal(t, "connected", h.Message)
	assert.False(t, h.CheckedAt.IsZero())

	d := Degraded("slow responses")
	assert.True(t, d.IsDegraded())

	u := Unhealthy("connection refused")
	assert.True(t, u.IsUnhealthy())
}

func TestHealthState_UnmarshalJSON(t *testing.T) {
	var s HealthState
	require.NoError(t, json.Unmarshal([]byte(`"degraded"`), &s))
	assert.Equal(t, HealthStateDegraded, s)

	err := json.Unmarshal([]byte(`"broken"`), &s)
	assert.Error(t, err)
}
