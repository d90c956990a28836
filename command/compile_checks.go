package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-wallets/core"
)

var (
	_ MutatingService = (core.WalletService)(nil)

	_ gocmd.Commander[ConnectMessage]             = (*ConnectCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]          = (*DisconnectCommand)(nil)
	_ gocmd.Commander[AutoConnectMessage]         = (*AutoConnectCommand)(nil)
	_ gocmd.Commander[SwitchChainMessage]         = (*SwitchChainCommand)(nil)
	_ gocmd.Commander[SwitchAccountMessage]       = (*SwitchAccountCommand)(nil)
	_ gocmd.Commander[AddCustomNetworkMessage]    = (*AddCustomNetworkCommand)(nil)
	_ gocmd.Commander[RemoveCustomNetworkMessage] = (*RemoveCustomNetworkCommand)(nil)
	_ gocmd.Commander[ToggleNetworkMessage]       = (*ToggleNetworkCommand)(nil)
	_ gocmd.Commander[SetCurrentNetworkMessage]   = (*SetCurrentNetworkCommand)(nil)
	_ gocmd.Commander[InitializeNamespaceMessage] = (*InitializeNamespaceCommand)(nil)
)
