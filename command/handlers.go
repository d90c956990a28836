package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-wallets/core"
)

// MutatingService is the write side of core.WalletService.
type MutatingService interface {
	Connect(ctx context.Context, req core.ConnectRequest) (core.ConnectionState, error)
	Disconnect(ctx context.Context) error
	AutoConnect(ctx context.Context) bool
	SwitchChain(ctx context.Context, chainID int64) error
	SwitchAccount(ctx context.Context, address string) error
	AddCustomNetwork(ctx context.Context, cfg core.NetworkConfig) (core.NetworkConfig, error)
	RemoveCustomNetwork(ctx context.Context, chainID int64) (bool, error)
	ToggleNetwork(ctx context.Context, namespace string, chainID int64, enabled bool) (bool, error)
	SetCurrentNetwork(ctx context.Context, namespace string, chainID int64) (bool, error)
	InitializeNamespace(ctx context.Context, namespace string, defaults ...int64) (bool, error)
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, core.ConnectRequest{ConnectorID: msg.ConnectorID, ChainID: msg.ChainID})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, _ DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx)
}

// AutoConnectCommand stores whether a session was restored. Restore
// failures are not errors.
type AutoConnectCommand struct {
	service MutatingService
}

func NewAutoConnectCommand(service MutatingService) *AutoConnectCommand {
	return &AutoConnectCommand{service: service}
}

func (c *AutoConnectCommand) Execute(ctx context.Context, _ AutoConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: auto-connect service is required")
	}
	storeResult(ctx, c.service.AutoConnect(ctx))
	return nil
}

type SwitchChainCommand struct {
	service MutatingService
}

func NewSwitchChainCommand(service MutatingService) *SwitchChainCommand {
	return &SwitchChainCommand{service: service}
}

func (c *SwitchChainCommand) Execute(ctx context.Context, msg SwitchChainMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: switch chain service is required")
	}
	return c.service.SwitchChain(ctx, msg.ChainID)
}

type SwitchAccountCommand struct {
	service MutatingService
}

func NewSwitchAccountCommand(service MutatingService) *SwitchAccountCommand {
	return &SwitchAccountCommand{service: service}
}

func (c *SwitchAccountCommand) Execute(ctx context.Context, msg SwitchAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: switch account service is required")
	}
	return c.service.SwitchAccount(ctx, msg.Address)
}

type AddCustomNetworkCommand struct {
	service MutatingService
}

func NewAddCustomNetworkCommand(service MutatingService) *AddCustomNetworkCommand {
	return &AddCustomNetworkCommand{service: service}
}

func (c *AddCustomNetworkCommand) Execute(ctx context.Context, msg AddCustomNetworkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: network service is required")
	}
	out, err := c.service.AddCustomNetwork(ctx, msg.Network)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RemoveCustomNetworkCommand struct {
	service MutatingService
}

func NewRemoveCustomNetworkCommand(service MutatingService) *RemoveCustomNetworkCommand {
	return &RemoveCustomNetworkCommand{service: service}
}

func (c *RemoveCustomNetworkCommand) Execute(ctx context.Context, msg RemoveCustomNetworkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: network service is required")
	}
	removed, err := c.service.RemoveCustomNetwork(ctx, msg.ChainID)
	if err != nil {
		return err
	}
	storeResult(ctx, removed)
	return nil
}

type ToggleNetworkCommand struct {
	service MutatingService
}

func NewToggleNetworkCommand(service MutatingService) *ToggleNetworkCommand {
	return &ToggleNetworkCommand{service: service}
}

func (c *ToggleNetworkCommand) Execute(ctx context.Context, msg ToggleNetworkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: network service is required")
	}
	applied, err := c.service.ToggleNetwork(ctx, msg.Namespace, msg.ChainID, msg.Enabled)
	if err != nil {
		return err
	}
	storeResult(ctx, applied)
	return nil
}

type SetCurrentNetworkCommand struct {
	service MutatingService
}

func NewSetCurrentNetworkCommand(service MutatingService) *SetCurrentNetworkCommand {
	return &SetCurrentNetworkCommand{service: service}
}

func (c *SetCurrentNetworkCommand) Execute(ctx context.Context, msg SetCurrentNetworkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: network service is required")
	}
	applied, err := c.service.SetCurrentNetwork(ctx, msg.Namespace, msg.ChainID)
	if err != nil {
		return err
	}
	storeResult(ctx, applied)
	return nil
}

type InitializeNamespaceCommand struct {
	service MutatingService
}

func NewInitializeNamespaceCommand(service MutatingService) *InitializeNamespaceCommand {
	return &InitializeNamespaceCommand{service: service}
}

func (c *InitializeNamespaceCommand) Execute(ctx context.Context, msg InitializeNamespaceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: network service is required")
	}
	created, err := c.service.InitializeNamespace(ctx, msg.Namespace, msg.DefaultChainIDs...)
	if err != nil {
		return err
	}
	storeResult(ctx, created)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
