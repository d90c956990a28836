package query

const (
	TypeConnectionState = "wallets.query.connection.state"
	TypeGetNetwork      = "wallets.query.network.get"
	TypeListNetworks    = "wallets.query.network.list"
	TypeEnabledNetworks = "wallets.query.network.enabled"
	TypeCurrentNetwork  = "wallets.query.network.current"
)

type ConnectionStateMessage struct{}

func (ConnectionStateMessage) Type() string { return TypeConnectionState }

func (ConnectionStateMessage) Validate() error { return nil }

type GetNetworkMessage struct {
	ChainID int64
}

func (GetNetworkMessage) Type() string { return TypeGetNetwork }

func (m GetNetworkMessage) Validate() error {
	if m.ChainID <= 0 {
		return queryValidationError("chain_id", "chain id must be > 0")
	}
	return nil
}

type ListNetworksMessage struct{}

func (ListNetworksMessage) Type() string { return TypeListNetworks }

func (ListNetworksMessage) Validate() error { return nil }

// EnabledNetworksMessage reads the service namespace when Namespace is empty.
type EnabledNetworksMessage struct {
	Namespace string
}

func (EnabledNetworksMessage) Type() string { return TypeEnabledNetworks }

func (EnabledNetworksMessage) Validate() error { return nil }

type CurrentNetworkMessage struct {
	Namespace string
}

func (CurrentNetworkMessage) Type() string { return TypeCurrentNetwork }

func (CurrentNetworkMessage) Validate() error { return nil }
