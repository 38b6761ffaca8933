package consul

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/uvfs/backend"
)

const Kind = "consul"

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		var config ConsulBackendConfig
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}

		return NewConsulBackend(&config)
	})
}

// ConsulBackend stores objects directly in the Consul KV store.
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Best suited for configuration files, small assets and metadata storage
type ConsulBackend struct {
	client *api.Client
	kv     *api.KV
	prefix string
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string `mapstructure:"address"`

	// Token for Consul ACL authentication (optional)
	Token string `mapstructure:"token"`

	// Datacenter to use (optional)
	Datacenter string `mapstructure:"datacenter"`

	// Namespace for Consul Enterprise (optional)
	Namespace string `mapstructure:"namespace"`

	// Prefix for all keys in Consul KV, empty for the whole store
	Prefix string `mapstructure:"prefix"`
}

// NewConsulBackend creates a new Consul-backed object storage driver
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	clientConfig := api.DefaultConfig()
	if config.Address != "" {
		clientConfig.Address = config.Address
	}
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

	prefix := strings.Trim(config.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		prefix: prefix,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend
func (cb *ConsulBackend) Open(ctx context.Context) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if _, _, err := cb.kv.Keys(cb.prefix, "/", q); err != nil {
		return fmt.Errorf("failed to reach consul: %w", err)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend
func (cb *ConsulBackend) Close(ctx context.Context) error {
	// Nothing to clean up - Consul client is stateless
	return nil
}

// Capabilities returns a list of capabilities supported by this backend
func (cb *ConsulBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityConditionalWrite,
			backend.CapabilityBatchDelete,
			backend.CapabilityModifyTime,
		},
		// Consul KV has a default limit of 512KB per value
		MaxObjectSize: 512 * 1024,
	}
}

// buildKey constructs the full Consul KV key from the object key
func (cb *ConsulBackend) buildKey(key string) string {
	return cb.prefix + key
}

// objectKey strips the configured prefix from a Consul KV key
func (cb *ConsulBackend) objectKey(consulKey string) string {
	return strings.TrimPrefix(consulKey, cb.prefix)
}
