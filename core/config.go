package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultConnectionStorageKey = "wallet.connection"
	DefaultNetworkStorageKey    = "wallet.networks"
	DefaultNamespace            = "default"
	DefaultSessionTTL           = 24 * time.Hour
)

type StorageConfig struct {
	ConnectionKey string `koanf:"connection_key" mapstructure:"connection_key"`
	NetworkKey    string `koanf:"network_key" mapstructure:"network_key"`
}

type SessionConfig struct {
	TTL                time.Duration `koanf:"ttl" mapstructure:"ttl"`
	DisableAutoConnect bool          `koanf:"disable_auto_connect" mapstructure:"disable_auto_connect"`
}

type NetworksConfig struct {
	DefaultChainIDs []int64 `koanf:"default_chain_ids" mapstructure:"default_chain_ids"`
	SkipBuiltIns    bool    `koanf:"skip_builtins" mapstructure:"skip_builtins"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Namespace   string         `koanf:"namespace" mapstructure:"namespace"`
	Storage     StorageConfig  `koanf:"storage" mapstructure:"storage"`
	Session     SessionConfig  `koanf:"session" mapstructure:"session"`
	Networks    NetworksConfig `koanf:"networks" mapstructure:"networks"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "wallets",
		Namespace:   DefaultNamespace,
		Storage: StorageConfig{
			ConnectionKey: DefaultConnectionStorageKey,
			NetworkKey:    DefaultNetworkStorageKey,
		},
		Session: SessionConfig{
			TTL: DefaultSessionTTL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("core: namespace is required")
	}
	if strings.TrimSpace(c.Storage.ConnectionKey) == "" {
		return fmt.Errorf("core: storage.connection_key is required")
	}
	if strings.TrimSpace(c.Storage.NetworkKey) == "" {
		return fmt.Errorf("core: storage.network_key is required")
	}
	if c.Storage.ConnectionKey == c.Storage.NetworkKey {
		return fmt.Errorf("core: storage keys must be distinct")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("core: session.ttl must not be negative")
	}
	for _, id := range c.Networks.DefaultChainIDs {
		if id <= 0 {
			return fmt.Errorf("core: networks.default_chain_ids contains invalid chain id %d", id)
		}
	}
	return nil
}
