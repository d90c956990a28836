// Package wallets wires the wallet session coordinator, the network registry
// and their integration behind a single service, with command and query
// handlers for hosts built on go-command.
package wallets

import (
	"github.com/goliatone/go-wallets/core"
	"github.com/goliatone/go-wallets/store/memory"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type WalletService = core.WalletService

type Connector = core.Connector

type Storage = core.Storage

type ConnectRequest = core.ConnectRequest

type ConnectionState = core.ConnectionState

type NetworkConfig = core.NetworkConfig

type RPCEndpoint = core.RPCEndpoint

type NetworkEvent = core.NetworkEvent

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithStorage           = core.WithStorage
	WithConnectionStorage = core.WithConnectionStorage
	WithNetworkStorage    = core.WithNetworkStorage
	WithNetworks          = core.WithNetworks
	WithConnectors        = core.WithConnectors
	WithClock             = core.WithClock
	WithEventContext      = core.WithEventContext
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a service backed by in-process storage unless opts
// supply one. Sessions then last only as long as the process.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	base := []Option{core.WithStorage(memory.New())}
	return core.NewService(cfg, append(base, opts...)...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}
