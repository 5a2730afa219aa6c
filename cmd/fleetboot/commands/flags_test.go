package commands

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetboot/internal/config"
)

func TestConfigFlags_ApplyOnlyChanged(t *testing.T) {
	var flags configFlags
	cmd := &cobra.Command{Use: "test"}
	flags.bind(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"--fleet", "web", "--poll-interval", "2s", "--node-id", "42"}))

	cfg := config.Default()
	cfg.Strategy = "versioned-lock"
	cfg.Poll.MaxAttempts = 7
	flags.apply(cmd, cfg)

	assert.Equal(t, "web", cfg.Fleet)
	assert.Equal(t, "42", cfg.Node.ID)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, "versioned-lock", cfg.Strategy, "unset flag must not override the config file")
	assert.Equal(t, 7, cfg.Poll.MaxAttempts)
}

func TestConfigFlags_ExplicitZeroOverrides(t *testing.T) {
	var flags configFlags
	cmd := &cobra.Command{Use: "test"}
	flags.bind(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"--poll-max-attempts=0", "--leader-discovery=health", "--leader-registry=lb-1"}))

	cfg := config.Default()
	flags.apply(cmd, cfg)

	assert.Zero(t, cfg.Poll.MaxAttempts)
	assert.Equal(t, config.DiscoveryHealth, cfg.Leader.Discovery)
	assert.Equal(t, "lb-1", cfg.Leader.Registry)
}
