package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthState is the coarse condition a backing component reports: the graph
// store, the vector store, the embedder, and the LLM providers all answer
// health probes with one of these.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

func (s HealthState) String() string {
	return string(s)
}

// IsValid checks if the HealthState is a known value.
func (s HealthState) IsValid() bool {
	switch s {
	case HealthStateHealthy, HealthStateDegraded, HealthStateUnhealthy:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s HealthState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown states.
func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	state := HealthState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid health state: %s", str)
	}

	*s = state
	return nil
}

// HealthStatus is one component's answer to a health probe: its state, a
// human-readable message, and when the probe ran. The health endpoint
// aggregates these across components, worst state winning.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// NewHealthStatus builds a HealthStatus stamped with the current time.
func NewHealthStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{
		State:     state,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

// Healthy reports a fully operational component.
func Healthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateHealthy, message)
}

// Degraded reports a component that still answers but should not be relied
// on, for example an embedder failing its probe call.
func Degraded(message string) HealthStatus {
	return NewHealthStatus(HealthStateDegraded, message)
}

// Unhealthy reports a component that cannot serve queries at all.
func Unhealthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateUnhealthy, message)
}

func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}

func (h HealthStatus) IsDegraded() bool {
	return h.State == HealthStateDegraded
}

func (h HealthStatus) IsUnhealthy() bool {
	return h.State == HealthStateUnhealthy
}
