package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

// ConsulBackend stores entities as JSON documents in the Consul KV store.
//
// Architecture:
// - Each entity is stored at "<prefix>/<kind>/<id>"
// - Queries list the kind prefix and filter in memory
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Name queries scan every entity of a kind
type ConsulBackend struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	// Configuration
	config *ConsulBackendConfig
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Namespace for Consul Enterprise (optional)
	Namespace string

	// Prefix for all keys in Consul KV (default: "cmdparse")
	Prefix string
}

// NewConsulBackend creates a new Consul-backed entity backend
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	config.Prefix = strings.Trim(config.Prefix, "/")
	if config.Prefix == "" {
		config.Prefix = "cmdparse"
	}

	// Create Consul client
	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open verifies that the Consul agent is reachable.
func (cb *ConsulBackend) Open(ctx context.Context) error {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if _, err := cb.client.Status().Leader(); err != nil {
		return fmt.Errorf("%w: %v", data.ErrBackendOpen, err)
	}

	return nil
}

// Close is part of the lifecycle behaviour; the Consul client holds no resources.
func (cb *ConsulBackend) Close(ctx context.Context) error {
	return nil
}

func (cb *ConsulBackend) buildKey(kind, id string) string {
	return cb.config.Prefix + "/" + backend.EntityKey(kind, id)
}

func (cb *ConsulBackend) queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func (cb *ConsulBackend) writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}
