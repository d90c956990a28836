package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-wallets/core"
)

var (
	_ ConnectionReader = (core.WalletService)(nil)
	_ NetworkReader    = (core.WalletService)(nil)

	_ gocmd.Querier[ConnectionStateMessage, core.ConnectionState] = (*ConnectionStateQuery)(nil)
	_ gocmd.Querier[GetNetworkMessage, core.NetworkConfig]        = (*GetNetworkQuery)(nil)
	_ gocmd.Querier[ListNetworksMessage, []core.NetworkConfig]    = (*ListNetworksQuery)(nil)
	_ gocmd.Querier[EnabledNetworksMessage, []core.NetworkConfig] = (*EnabledNetworksQuery)(nil)
	_ gocmd.Querier[CurrentNetworkMessage, core.NetworkConfig]    = (*CurrentNetworkQuery)(nil)
)
