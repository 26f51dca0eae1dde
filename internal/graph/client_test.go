package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty URI",
			modify:  func(c *Config) { c.URI = "" },
			wantErr: true,
		},
		{
			name:    "empty username",
			modify:  func(c *Config) { c.Username = "" },
			wantErr: true,
		},
		{
			name:    "empty password",
			modify:  func(c *Config) { c.Password = "" },
			wantErr: true,
		},
		{
			name:    "zero connection timeout",
			modify:  func(c *Config) { c.ConnectionTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative retry time",
			modify:  func(c *Config) { c.MaxTransactionRetryTime = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ErrCodeInvalidConfig, types.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewNeo4jClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewNeo4jClient(Config{})
	assert.Error(t, err)
	assert.Equal(t, ErrCodeInvalidConfig, types.CodeOf(err))
}

func TestNeighborRequestValidate(t *testing.T) {
	err := NeighborRequest{}.Validate()
	assert.Error(t, err)
	assert.Equal(t, ErrCodeInvalidRequest, types.CodeOf(err))

	err = NeighborRequest{NodeID: "n1", RelTypes: []policy.RelationType{"BOGUS"}}.Validate()
	assert.Error(t, err)

	err = NeighborRequest{NodeID: "n1", RelTypes: []policy.RelationType{policy.RelationCovers}}.Validate()
	assert.NoError(t, err)
}
