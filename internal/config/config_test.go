package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, []string{"."}, cfg.Paths)
	assert.Equal(t, "sonnet", cfg.Model)
	assert.True(t, cfg.UpdateDeps)
	assert.False(t, cfg.NoTag)
	assert.NotEmpty(t, cfg.RunTimestamp)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) { c.Paths = []string{dir} },
		},
		{
			name:    "unknown model",
			mutate:  func(c *Config) { c.Paths = []string{dir}; c.Model = "gpt4" },
			wantErr: "invalid model",
		},
		{
			name:    "missing path",
			mutate:  func(c *Config) { c.Paths = []string{dir + "/does-not-exist"} },
			wantErr: "does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
