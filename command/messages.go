package command

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-wallets/core"
)

const (
	TypeConnect             = "wallets.command.connect"
	TypeDisconnect          = "wallets.command.disconnect"
	TypeAutoConnect         = "wallets.command.auto_connect"
	TypeSwitchChain         = "wallets.command.chain.switch"
	TypeSwitchAccount       = "wallets.command.account.switch"
	TypeAddCustomNetwork    = "wallets.command.network.add"
	TypeRemoveCustomNetwork = "wallets.command.network.remove"
	TypeToggleNetwork       = "wallets.command.network.toggle"
	TypeSetCurrentNetwork   = "wallets.command.network.set_current"
	TypeInitializeNamespace = "wallets.command.namespace.initialize"
)

type ConnectMessage struct {
	ConnectorID string
	// ChainID zero connects on the namespace's current network.
	ChainID int64
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	if strings.TrimSpace(m.ConnectorID) == "" {
		return commandValidationError("connector_id", "connector id is required")
	}
	if m.ChainID < 0 {
		return commandValidationError("chain_id", "chain id must be >= 0")
	}
	return nil
}

type DisconnectMessage struct{}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (DisconnectMessage) Validate() error { return nil }

type AutoConnectMessage struct{}

func (AutoConnectMessage) Type() string { return TypeAutoConnect }

func (AutoConnectMessage) Validate() error { return nil }

type SwitchChainMessage struct {
	ChainID int64
}

func (SwitchChainMessage) Type() string { return TypeSwitchChain }

func (m SwitchChainMessage) Validate() error {
	return validateChainID(m.ChainID)
}

type SwitchAccountMessage struct {
	Address string
}

func (SwitchAccountMessage) Type() string { return TypeSwitchAccount }

func (m SwitchAccountMessage) Validate() error {
	address := strings.TrimSpace(m.Address)
	if address == "" {
		return commandValidationError("address", "address is required")
	}
	if !common.IsHexAddress(address) {
		return commandValidationError("address", "address must be a 20-byte hex address")
	}
	return nil
}

type AddCustomNetworkMessage struct {
	Network core.NetworkConfig
}

func (AddCustomNetworkMessage) Type() string { return TypeAddCustomNetwork }

func (m AddCustomNetworkMessage) Validate() error {
	return commandWrapValidation(m.Network.Validate(), "command: invalid network")
}

type RemoveCustomNetworkMessage struct {
	ChainID int64
}

func (RemoveCustomNetworkMessage) Type() string { return TypeRemoveCustomNetwork }

func (m RemoveCustomNetworkMessage) Validate() error {
	return validateChainID(m.ChainID)
}

type ToggleNetworkMessage struct {
	// Namespace defaults to the service namespace when empty.
	Namespace string
	ChainID   int64
	Enabled   bool
}

func (ToggleNetworkMessage) Type() string { return TypeToggleNetwork }

func (m ToggleNetworkMessage) Validate() error {
	return validateChainID(m.ChainID)
}

type SetCurrentNetworkMessage struct {
	Namespace string
	ChainID   int64
}

func (SetCurrentNetworkMessage) Type() string { return TypeSetCurrentNetwork }

func (m SetCurrentNetworkMessage) Validate() error {
	return validateChainID(m.ChainID)
}

type InitializeNamespaceMessage struct {
	Namespace       string
	DefaultChainIDs []int64
}

func (InitializeNamespaceMessage) Type() string { return TypeInitializeNamespace }

func (m InitializeNamespaceMessage) Validate() error {
	if strings.TrimSpace(m.Namespace) == "" {
		return commandValidationError("namespace", "namespace is required")
	}
	for _, chainID := range m.DefaultChainIDs {
		if chainID <= 0 {
			return commandValidationError("default_chain_ids", "default chain ids must be > 0")
		}
	}
	return nil
}

func validateChainID(chainID int64) error {
	if chainID <= 0 {
		return commandValidationError("chain_id", "chain id must be > 0")
	}
	return nil
}
