package core

type NetworkEvent interface {
	networkEvent()
}

type NetworkAddedEvent struct {
	Network NetworkConfig
}

type NetworkRemovedEvent struct {
	ChainID int64
}

type NetworkUpdatedEvent struct {
	Network NetworkConfig
}

type NetworkToggledEvent struct {
	Namespace string
	ChainID   int64
	Enabled   bool
}

type CurrentNetworkChangedEvent struct {
	Namespace string
	ChainID   int64
}

func (NetworkAddedEvent) networkEvent()          {}
func (NetworkRemovedEvent) networkEvent()        {}
func (NetworkUpdatedEvent) networkEvent()        {}
func (NetworkToggledEvent) networkEvent()        {}
func (CurrentNetworkChangedEvent) networkEvent() {}

func NetworkEventName(event NetworkEvent) string {
	switch event.(type) {
	case NetworkAddedEvent:
		return "network_added"
	case NetworkRemovedEvent:
		return "network_removed"
	case NetworkUpdatedEvent:
		return "network_updated"
	case NetworkToggledEvent:
		return "network_toggled"
	case CurrentNetworkChangedEvent:
		return "current_network_changed"
	default:
		return "unknown"
	}
}
