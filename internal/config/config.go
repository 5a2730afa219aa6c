package config

import (
	"time"
)

// Leader discovery modes.
const (
	// DiscoveryDirectory takes the leader from the instance-ordering result.
	DiscoveryDirectory = "directory"
	// DiscoveryHealth waits for the first healthy target of the health registry.
	DiscoveryHealth = "health"
)

// Kubernetes node naming.
const (
	// NodeNameID names the Kubernetes node after the instance ID.
	NodeNameID = "id"
	// NodeNameHostname keeps the hostname as the Kubernetes node name.
	NodeNameHostname = "hostname"
)

// Defaults.
const (
	DefaultStrategy        = "instance-ordering"
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 60
	DefaultS3Region        = "fsn1"
	DefaultRuntime         = "k3s"
)

// Config is the complete fleetboot configuration.
type Config struct {
	// Fleet is the fleet identifier, matched against the fleetboot.io/fleet label.
	Fleet string `yaml:"fleet"`
	// Strategy is the role resolution strategy: instance-ordering or versioned-lock.
	Strategy string `yaml:"strategy"`

	Node      NodeConfig      `yaml:"node"`
	Store     StoreConfig     `yaml:"store"`
	Leader    LeaderConfig    `yaml:"leader"`
	Poll      PollConfig      `yaml:"poll"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Readiness ReadinessConfig `yaml:"readiness"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// HCloudToken is read from HCLOUD_TOKEN only.
	HCloudToken string `yaml:"-"`
}

// NodeConfig overrides the identity discovered from the metadata service.
type NodeConfig struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	LocalAddress     string `yaml:"local_address"`
	PublicAddress    string `yaml:"public_address"`
	MetadataEndpoint string `yaml:"metadata_endpoint"`
}

// StoreConfig selects the S3 bucket used as the shared store.
type StoreConfig struct {
	// Prefix namespaces all keys, defaults to "<fleet>/".
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	PathStyle bool   `yaml:"path_style"`

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// LeaderConfig controls how joiners find the initializer.
type LeaderConfig struct {
	Discovery string `yaml:"discovery"`
	// Registry is the ID or name of the load balancer acting as health registry.
	Registry string `yaml:"registry"`
}

// PollConfig is the budget shared by every blocking wait.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// RuntimeConfig configures the cluster runtime.
type RuntimeConfig struct {
	// Kind is the runtime implementation; only k3s is supported.
	Kind       string   `yaml:"kind"`
	Channel    string   `yaml:"channel"`
	InstallURL string   `yaml:"install_url"`
	APIPort    int      `yaml:"api_port"`
	ExtraArgs  []string `yaml:"extra_args"`
	// NodeName is NodeNameID or NodeNameHostname.
	NodeName string `yaml:"node_name"`
}

// ReadinessConfig enables the final Kubernetes node readiness wait.
type ReadinessConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig configures the node-exporter textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Strategy: DefaultStrategy,
		Store: StoreConfig{
			Region: DefaultS3Region,
		},
		Poll: PollConfig{
			Interval:    DefaultPollInterval,
			MaxAttempts: DefaultPollMaxAttempts,
		},
		Runtime: RuntimeConfig{
			Kind:     DefaultRuntime,
			NodeName: NodeNameID,
		},
	}
}

// KeyPrefix returns the store key prefix for the fleet.
func (c *Config) KeyPrefix() string {
	if c.Store.Prefix != "" {
		return c.Store.Prefix
	}
	return c.Fleet + "/"
}

// LeaderDiscovery returns the configured discovery mode, or the mode implied
// by the rest of the configuration when unset.
func (c *Config) LeaderDiscovery() string {
	if c.Leader.Discovery != "" {
		return c.Leader.Discovery
	}
	if c.Leader.Registry != "" || c.Strategy == "versioned-lock" {
		return DiscoveryHealth
	}
	return DiscoveryDirectory
}
