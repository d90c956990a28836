package core

type ConnectorEvent interface {
	connectorEvent()
}

type EventHandler func(ConnectorEvent)

type ConnectedEvent struct {
	Address   string
	Addresses []string
	ChainID   int64
	Chains    []int64
}

type DisconnectedEvent struct{}

// PermissionChangedEvent carries a partial update. Zero-valued fields were
// not reported and leave the session untouched.
type PermissionChangedEvent struct {
	Address   string
	Addresses []string
	ChainID   int64
	Chains    []int64
}

type ErrorEvent struct {
	Err error
}

type DisplayURIEvent struct {
	URI string
}

func (ConnectedEvent) connectorEvent()         {}
func (DisconnectedEvent) connectorEvent()      {}
func (PermissionChangedEvent) connectorEvent() {}
func (ErrorEvent) connectorEvent()             {}
func (DisplayURIEvent) connectorEvent()        {}

func EventName(event ConnectorEvent) string {
	switch event.(type) {
	case ConnectedEvent:
		return "connected"
	case DisconnectedEvent:
		return "disconnected"
	case PermissionChangedEvent:
		return "permission_changed"
	case ErrorEvent:
		return "error"
	case DisplayURIEvent:
		return "display_uri"
	default:
		return "unknown"
	}
}
