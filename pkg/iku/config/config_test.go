package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/config"
)

func TestDefaultMatchesDocumentedConstants(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, config.DefaultBufferSize, cfg.BufferSize)
	require.Equal(t, config.DefaultRetries, cfg.Retries)
	require.False(t, cfg.Destructive)
}

func TestApplyToOnlyOverridesSetFields(t *testing.T) {
	cfg := config.Default()

	retries := 7
	delay := 1.5
	overrides := &config.FileConfig{
		Retries:      &retries,
		DelaySeconds: &delay,
	}

	overrides.ApplyTo(cfg)

	require.Equal(t, 7, cfg.Retries)
	require.Equal(t, time.Duration(1500*time.Millisecond), cfg.Delay)
	require.Equal(t, config.DefaultBufferSize, cfg.BufferSize)
	require.False(t, cfg.Destructive)
}

func TestApplyToNilFileConfigLeavesBaseUnchanged(t *testing.T) {
	cfg := config.Default()
	var overrides *config.FileConfig

	result := overrides.ApplyTo(cfg)

	require.Same(t, cfg, result)
	require.Equal(t, config.DefaultBufferSize, result.BufferSize)
}
