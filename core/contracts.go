package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Connector is the capability contract every wallet adapter satisfies.
type Connector interface {
	ID() string
	Connect(ctx context.Context, chainID int64) (ConnectResult, error)
	Disconnect(ctx context.Context) error
	Account(ctx context.Context) (string, error)
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (int64, error)
	SwitchAccount(ctx context.Context, address string) error
	SwitchChain(ctx context.Context, chainID int64) error
	IsAuthorized(ctx context.Context) (bool, error)
	SupportsChain(chainID int64) bool
	// SupportedChains returns nil when the connector accepts any chain.
	SupportedChains() []int64
	Subscribe(handler EventHandler) (unsubscribe func())
}

type ChainUpdater interface {
	UpdateChains(ctx context.Context, chains []int64) error
}

type ChainCache interface {
	SetSupportedChains(chains []int64)
}

type ConnectResult struct {
	Address   string
	Addresses []string
	ChainID   int64
}

// Storage persists opaque blobs by key.
type Storage interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Clear(ctx context.Context, key string) error
}

type StateListener func(ConnectionState)

type NetworkListener func(NetworkEvent)

type DisplayURIListener func(connectorID string, uri string)

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type WalletService interface {
	Connect(ctx context.Context, req ConnectRequest) (ConnectionState, error)
	Disconnect(ctx context.Context) error
	AutoConnect(ctx context.Context) bool
	SwitchChain(ctx context.Context, chainID int64) error
	SwitchAccount(ctx context.Context, address string) error
	ConnectionState() ConnectionState

	AddCustomNetwork(ctx context.Context, cfg NetworkConfig) (NetworkConfig, error)
	RemoveCustomNetwork(ctx context.Context, chainID int64) (bool, error)
	ToggleNetwork(ctx context.Context, namespace string, chainID int64, enabled bool) (bool, error)
	SetCurrentNetwork(ctx context.Context, namespace string, chainID int64) (bool, error)
	InitializeNamespace(ctx context.Context, namespace string, defaults ...int64) (bool, error)

	Network(chainID int64) (NetworkConfig, error)
	Networks() []NetworkConfig
	EnabledNetworks(namespace string) []NetworkConfig
	CurrentNetwork(namespace string) (NetworkConfig, error)
}
