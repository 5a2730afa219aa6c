package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables.
const (
	EnvFleet           = "FLEETBOOT_FLEET"
	EnvStrategy        = "FLEETBOOT_STRATEGY"
	EnvNodeID          = "FLEETBOOT_NODE_ID"
	EnvPollInterval    = "FLEETBOOT_POLL_INTERVAL"
	EnvPollMaxAttempts = "FLEETBOOT_POLL_MAX_ATTEMPTS"
	EnvLeaderRegistry  = "FLEETBOOT_LEADER_REGISTRY"
	EnvS3Endpoint      = "FLEETBOOT_S3_ENDPOINT"
	EnvS3Region        = "FLEETBOOT_S3_REGION"
	EnvS3Bucket        = "FLEETBOOT_S3_BUCKET"
	EnvS3AccessKey     = "FLEETBOOT_S3_ACCESS_KEY" // #nosec G101 -- variable name
	EnvS3SecretKey     = "FLEETBOOT_S3_SECRET_KEY" // #nosec G101 -- variable name
	EnvMetricsTextfile = "FLEETBOOT_METRICS_TEXTFILE"
	EnvHCloudToken     = "HCLOUD_TOKEN" // #nosec G101 -- variable name
)

// ApplyEnv overlays environment variables on c. Unset variables and values
// that fail to parse leave the current value untouched.
//
// Environment Variables:
//   - FLEETBOOT_FLEET, FLEETBOOT_STRATEGY, FLEETBOOT_NODE_ID
//   - FLEETBOOT_POLL_INTERVAL (default: 5s)
//   - FLEETBOOT_POLL_MAX_ATTEMPTS (default: 60)
//   - FLEETBOOT_LEADER_REGISTRY
//   - FLEETBOOT_S3_ENDPOINT, FLEETBOOT_S3_REGION, FLEETBOOT_S3_BUCKET
//   - FLEETBOOT_S3_ACCESS_KEY, FLEETBOOT_S3_SECRET_KEY
//   - FLEETBOOT_METRICS_TEXTFILE
//   - HCLOUD_TOKEN
func (c *Config) ApplyEnv() {
	c.Fleet = parseString(EnvFleet, c.Fleet)
	c.Strategy = parseString(EnvStrategy, c.Strategy)
	c.Node.ID = parseString(EnvNodeID, c.Node.ID)
	c.Poll.Interval = parseDuration(EnvPollInterval, c.Poll.Interval)
	c.Poll.MaxAttempts = parseInt(EnvPollMaxAttempts, c.Poll.MaxAttempts)
	c.Leader.Registry = parseString(EnvLeaderRegistry, c.Leader.Registry)
	c.Store.Endpoint = parseString(EnvS3Endpoint, c.Store.Endpoint)
	c.Store.Region = parseString(EnvS3Region, c.Store.Region)
	c.Store.Bucket = parseString(EnvS3Bucket, c.Store.Bucket)
	c.Store.AccessKey = parseString(EnvS3AccessKey, c.Store.AccessKey)
	c.Store.SecretKey = parseString(EnvS3SecretKey, c.Store.SecretKey)
	c.Metrics.Textfile = parseString(EnvMetricsTextfile, c.Metrics.Textfile)
	c.HCloudToken = parseString(EnvHCloudToken, c.HCloudToken)
}

func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
