// Package handlers implements the fleetboot commands.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/platform/hcloud"
	"github.com/imamik/fleetboot/internal/platform/s3"
	"github.com/imamik/fleetboot/internal/readiness"
	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/runtime/k3s"
	"github.com/imamik/fleetboot/internal/store"
)

// Bucket is the shared store as the handlers need it.
type Bucket interface {
	store.VersionedStore
	VersioningEnabled(ctx context.Context) (bool, error)
}

// Cloud is the fleet directory and health registry.
type Cloud interface {
	election.FleetDirectory
	bootstrap.HealthRegistry
}

// ClusterRuntime is the cluster runtime plus the kubeconfig it writes.
type ClusterRuntime interface {
	runtime.Cluster
	Kubeconfig() string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads the configuration file and environment.
	loadConfig = config.Load

	// newBucket creates the S3 shared store.
	newBucket = func(ctx context.Context, cfg *config.Config) (Bucket, error) {
		return s3.NewClient(ctx, s3.Options{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			Bucket:    cfg.Store.Bucket,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			PathStyle: cfg.Store.PathStyle,
		})
	}

	// newCloud creates the Hetzner Cloud client.
	newCloud = func(token string) Cloud {
		return hcloud.NewRealClient(token)
	}

	// newMetadataSource creates the metadata service client.
	newMetadataSource = func(endpoint string) node.MetadataSource {
		return node.NewMetadataClient(endpoint)
	}

	// newRuntime creates the cluster runtime for the local node.
	newRuntime = func(cfg *config.Config, self node.Node) ClusterRuntime {
		return k3s.New(k3s.Options{
			InstallURL: cfg.Runtime.InstallURL,
			Channel:    cfg.Runtime.Channel,
			APIPort:    cfg.Runtime.APIPort,
			ExtraArgs:  cfg.Runtime.ExtraArgs,
			NodeName:   kubeNodeName(cfg, self),
			ProviderID: "hcloud://" + self.ID,
		})
	}

	// newReadiness creates the Kubernetes node readiness check.
	newReadiness = func(kubeconfig, nodeName string) bootstrap.Readiness {
		return &readiness.Lazy{New: readiness.NewFromKubeconfig(kubeconfig, nodeName)}
	}

	// writeMetrics writes the metrics textfile.
	writeMetrics = bootstrap.WriteTextfile

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// colorEnabled decides whether output is styled.
	colorEnabled = IsInteractiveTTY
)

// kubeNodeName returns the name the node registers with in Kubernetes.
func kubeNodeName(cfg *config.Config, self node.Node) string {
	if cfg.Runtime.NodeName == config.NodeNameHostname {
		return self.Name
	}
	return self.ID
}

// IsInteractiveTTY reports whether stdout is a terminal.
func IsInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// loadAndValidate loads the configuration, applies flag overrides and validates.
func loadAndValidate(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// environment holds the backends of one invocation.
type environment struct {
	cfg      *config.Config
	self     node.Node
	store    store.VersionedStore
	cloud    Cloud
	resolver election.Resolver
}

// setup discovers the local node and connects the backends.
func setup(ctx context.Context, cfg *config.Config) (*environment, error) {
	self, err := node.Discover(ctx, newMetadataSource(cfg.Node.MetadataEndpoint), node.Overrides{
		ID:            cfg.Node.ID,
		Name:          cfg.Node.Name,
		LocalAddress:  cfg.Node.LocalAddress,
		PublicAddress: cfg.Node.PublicAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover local node: %w", err)
	}

	bucket, err := newBucket(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create store client: %w", err)
	}
	shared := store.Prefixed{Prefix: cfg.KeyPrefix(), Inner: bucket}

	cloud := newCloud(cfg.HCloudToken)
	resolver, err := election.New(cfg.Strategy, election.Deps{Directory: cloud, Fleet: cfg.Fleet, Store: shared})
	if err != nil {
		return nil, err
	}
	if cfg.Strategy == election.StrategyVersionedLock {
		resolver = &versioningGuard{Resolver: resolver, bucket: bucket}
	}

	return &environment{cfg: cfg, self: self, store: shared, cloud: cloud, resolver: resolver}, nil
}
