package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud/metadata"
	"gopkg.in/yaml.v3"
)

// MetadataSource is the subset of the Hetzner metadata client used to
// discover the local node.
type MetadataSource interface {
	InstanceID() (int64, error)
	Hostname() (string, error)
	PublicIPv4() (net.IP, error)
	PrivateNetworks() (string, error)
}

// Overrides replace discovered values when non-empty.
type Overrides struct {
	ID            string
	Name          string
	LocalAddress  string
	PublicAddress string
}

type privateNetwork struct {
	IP string `yaml:"ip"`
}

// NewMetadataClient returns a metadata client, optionally against a custom endpoint.
func NewMetadataClient(endpoint string) *metadata.Client {
	if endpoint == "" {
		return metadata.NewClient()
	}
	return metadata.NewClient(metadata.WithEndpoint(endpoint))
}

// Discover resolves the local node. Overrides win over metadata; the metadata
// service is only consulted for fields that are still missing.
func Discover(_ context.Context, src MetadataSource, o Overrides) (Node, error) {
	n := Node{
		ID:            o.ID,
		Name:          o.Name,
		LocalAddress:  o.LocalAddress,
		PublicAddress: o.PublicAddress,
		LaunchTime:    time.Now(),
		Health:        HealthUnknown,
	}

	if n.ID == "" {
		id, err := src.InstanceID()
		if err != nil {
			return Node{}, fmt.Errorf("failed to read instance id: %w", err)
		}
		n.ID = strconv.FormatInt(id, 10)
	}

	if n.Name == "" {
		name, err := src.Hostname()
		if err != nil {
			name, err = os.Hostname()
			if err != nil {
				return Node{}, fmt.Errorf("failed to determine hostname: %w", err)
			}
		}
		n.Name = name
	}

	if n.LocalAddress == "" {
		raw, err := src.PrivateNetworks()
		if err == nil {
			n.LocalAddress = firstPrivateIP(raw)
		}
	}

	if n.PublicAddress == "" {
		if ip, err := src.PublicIPv4(); err == nil && ip != nil {
			n.PublicAddress = ip.String()
		}
	}

	if n.AdvertiseAddress() == "" {
		return Node{}, fmt.Errorf("node %s has neither a private nor a public address", n.ID)
	}
	return n, nil
}

// firstPrivateIP extracts the first attached private network IP from the
// YAML document served at /private-networks.
func firstPrivateIP(raw string) string {
	var networks []privateNetwork
	if err := yaml.Unmarshal([]byte(raw), &networks); err != nil {
		return ""
	}
	for _, n := range networks {
		if n.IP != "" {
			return n.IP
		}
	}
	return ""
}
