package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type SessionExtender interface {
	SessionExtensionData() map[string]any
}

// ConnectionManager owns the single logical wallet session.
type ConnectionManager struct {
	storage  Storage
	key      string
	ttl      time.Duration
	logger   Logger
	now      func() time.Time
	registry *ConnectorRegistry

	mu            sync.RWMutex
	state         ConnectionState
	pendingID     string
	subscriptions map[string]func()

	listeners    listenerSet[StateListener]
	uriListeners listenerSet[DisplayURIListener]
}

type ConnectionManagerOption func(*ConnectionManager)

func WithConnectionStorageKey(key string) ConnectionManagerOption {
	return func(m *ConnectionManager) {
		if key = strings.TrimSpace(key); key != "" {
			m.key = key
		}
	}
}

func WithSessionTTL(ttl time.Duration) ConnectionManagerOption {
	return func(m *ConnectionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithConnectionLogger(logger Logger) ConnectionManagerOption {
	return func(m *ConnectionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithConnectionClock(now func() time.Time) ConnectionManagerOption {
	return func(m *ConnectionManager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithConnectorRegistry(registry *ConnectorRegistry) ConnectionManagerOption {
	return func(m *ConnectionManager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func NewConnectionManager(storage Storage, opts ...ConnectionManagerOption) *ConnectionManager {
	m := &ConnectionManager{
		storage:       storage,
		key:           DefaultConnectionStorageKey,
		ttl:           DefaultSessionTTL,
		logger:        glog.Nop(),
		now:           func() time.Time { return time.Now().UTC() },
		registry:      NewConnectorRegistry(),
		subscriptions: map[string]func(){},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

func (m *ConnectionManager) RegisterConnector(connector Connector) error {
	if _, err := m.registry.Register(connector); err != nil {
		return err
	}
	id := connector.ID()
	unsubscribe := connector.Subscribe(func(event ConnectorEvent) {
		m.handleEvent(connector, event)
	})

	m.mu.Lock()
	previous := m.subscriptions[id]
	m.subscriptions[id] = unsubscribe
	m.mu.Unlock()

	if previous != nil {
		previous()
	}
	m.logger.Debug("connector registered", "connector_id", id)
	return nil
}

func (m *ConnectionManager) UnregisterConnector(ctx context.Context, connectorID string) bool {
	connectorID = strings.TrimSpace(connectorID)
	if _, ok := m.registry.Get(connectorID); !ok {
		return false
	}
	if m.State().ConnectorID() == connectorID {
		_ = m.Disconnect(ctx)
	}
	m.registry.Unregister(connectorID)

	m.mu.Lock()
	unsubscribe := m.subscriptions[connectorID]
	delete(m.subscriptions, connectorID)
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	return true
}

func (m *ConnectionManager) Connector(connectorID string) (Connector, bool) {
	return m.registry.Get(connectorID)
}

func (m *ConnectionManager) Connectors() []Connector {
	return m.registry.List()
}

func (m *ConnectionManager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

func (m *ConnectionManager) Subscribe(listener StateListener) func() {
	if listener == nil {
		return func() {}
	}
	unsubscribe := m.listeners.add(listener)
	listener(m.State())
	return unsubscribe
}

func (m *ConnectionManager) SubscribeDisplayURI(listener DisplayURIListener) func() {
	if listener == nil {
		return func() {}
	}
	return m.uriListeners.add(listener)
}

func (m *ConnectionManager) ConnectByID(ctx context.Context, connectorID string, chainID int64) (ConnectionState, error) {
	connector, ok := m.registry.Get(connectorID)
	if !ok {
		return m.State(), fmt.Errorf("%w: %s", ErrConnectorMissing, connectorID)
	}
	return m.Connect(ctx, connector, chainID)
}

func (m *ConnectionManager) Connect(ctx context.Context, connector Connector, chainID int64) (ConnectionState, error) {
	if connector == nil {
		return m.State(), fmt.Errorf("%w: connector is required", ErrNotReady)
	}
	id := strings.TrimSpace(connector.ID())
	if id == "" {
		return m.State(), fmt.Errorf("core: connector id is required")
	}
	if _, registered := m.registry.Get(id); !registered {
		if err := m.RegisterConnector(connector); err != nil {
			return m.State(), err
		}
	}

	if active := m.State().ConnectorID(); active != "" && active != id {
		m.logger.Info("disconnecting active connector before connect", "active_connector_id", active, "connector_id", id)
		if err := m.Disconnect(ctx); err != nil {
			return m.State(), err
		}
	}

	m.mu.Lock()
	before := m.state.clone()
	m.pendingID = id
	snapshot, _ := m.commitLocked(ConnectionState{IsConnecting: true})
	m.mu.Unlock()
	m.notify(snapshot)

	result, err := connector.Connect(ctx, chainID)
	if err == nil {
		result, err = normalizeConnectResult(result, chainID)
	}
	if err != nil {
		err = NormalizeProviderError(err)
		m.mu.Lock()
		if m.pendingID == id {
			m.pendingID = ""
		}
		if before.IsConnected && before.ConnectorID() == id && !m.state.IsConnected {
			restored := before
			restored.Error = err
			var ok bool
			snapshot, ok = m.commitLocked(restored)
			if ok {
				m.persistLocked(ctx, 0)
			}
			m.mu.Unlock()
			m.notify(snapshot)
			m.logger.Warn("reconnect failed, keeping session", "connector_id", id, "chain_id", chainID, "error", err)
			return snapshot, err
		}
		snapshot, _ = m.commitLocked(ConnectionState{Error: err})
		m.mu.Unlock()
		m.clearStorage(ctx)
		m.notify(snapshot)
		m.logger.Warn("connect failed", "connector_id", id, "chain_id", chainID, "error", err)
		return snapshot, err
	}

	m.mu.Lock()
	if m.pendingID == id {
		m.pendingID = ""
	}
	next := ConnectionState{
		IsConnected: true,
		Address:     result.Address,
		Addresses:   result.Addresses,
		ChainID:     result.ChainID,
		Chains:      connector.SupportedChains(),
		Connector:   connector,
	}
	snapshot, ok := m.commitLocked(next)
	if ok {
		m.persistLocked(ctx, 0)
	}
	m.mu.Unlock()
	m.notify(snapshot)
	return snapshot, nil
}

// Disconnect clears the persisted session and then asks the active
// connector to disconnect. Connector failures are recorded on the state but
// not returned; the session is always cleared locally.
func (m *ConnectionManager) Disconnect(ctx context.Context) error {
	m.mu.RLock()
	active := m.state.Connector
	m.mu.RUnlock()
	if active == nil {
		return nil
	}
	id := active.ID()

	m.clearStorage(ctx)

	disconnectErr := active.Disconnect(ctx)
	if disconnectErr != nil {
		disconnectErr = NormalizeProviderError(disconnectErr)
		m.logger.Warn("connector disconnect failed", "connector_id", id, "error", disconnectErr)
	}

	m.mu.Lock()
	if m.state.ConnectorID() != id {
		var snapshot ConnectionState
		changed := false
		if disconnectErr != nil && m.state.Connector == nil {
			next := m.state.clone()
			next.Error = disconnectErr
			snapshot, changed = m.commitLocked(next)
		}
		m.mu.Unlock()
		if changed {
			m.notify(snapshot)
		}
		return nil
	}
	snapshot, _ := m.commitLocked(ConnectionState{Error: disconnectErr})
	m.mu.Unlock()
	m.notify(snapshot)
	return nil
}

func (m *ConnectionManager) AutoConnect(ctx context.Context) bool {
	if current := m.State(); current.IsConnected {
		return true
	}
	if m.storage == nil {
		return false
	}

	record, reason := m.loadRecord(ctx)
	if reason != nil {
		m.failAutoConnect(ctx, reason)
		return false
	}
	connector, ok := m.registry.Get(record.ConnectorID)
	if !ok {
		m.failAutoConnect(ctx, fmt.Errorf("%w: %s", ErrConnectorMissing, record.ConnectorID))
		return false
	}

	next, err := m.restoreState(ctx, connector, record)
	if err != nil {
		m.failAutoConnect(ctx, err)
		return false
	}

	m.mu.Lock()
	if m.state.IsConnected || m.pendingID != "" {
		m.mu.Unlock()
		m.logger.Info("session changed during auto connect, keeping it", "connector_id", record.ConnectorID)
		return m.State().IsConnected
	}
	snapshot, ok := m.commitLocked(next)
	if ok {
		m.persistLocked(ctx, record.Timestamp)
	}
	m.mu.Unlock()
	if !ok {
		m.failAutoConnect(ctx, fmt.Errorf("%w: restored session is incomplete", ErrInvalidPersistedSession))
		return false
	}
	m.notify(snapshot)
	m.logger.Info("session restored", "connector_id", record.ConnectorID, "chain_id", snapshot.ChainID)
	return true
}

func (m *ConnectionManager) loadRecord(ctx context.Context) (PersistedConnection, error) {
	raw, found, err := m.storage.Load(ctx, m.key)
	if err != nil {
		return PersistedConnection{}, fmt.Errorf("%w: load session: %v", ErrStorage, err)
	}
	if !found || len(raw) == 0 {
		return PersistedConnection{}, fmt.Errorf("%w: no persisted session", ErrInvalidPersistedSession)
	}
	var record PersistedConnection
	if err := json.Unmarshal(raw, &record); err != nil {
		return PersistedConnection{}, fmt.Errorf("%w: %v", ErrInvalidPersistedSession, err)
	}
	if err := record.Validate(); err != nil {
		return PersistedConnection{}, err
	}
	if record.Expired(m.now(), m.ttl) {
		return PersistedConnection{}, fmt.Errorf("%w: saved at %s", ErrConnectionExpired, record.SavedAt().Format(time.RFC3339))
	}
	return record, nil
}

func (m *ConnectionManager) restoreState(ctx context.Context, connector Connector, record PersistedConnection) (ConnectionState, error) {
	authorized, err := connector.IsAuthorized(ctx)
	if err != nil {
		return ConnectionState{}, NormalizeProviderError(err)
	}
	if !authorized {
		return ConnectionState{}, fmt.Errorf("%w: %s", ErrNotAuthorized, connector.ID())
	}
	addresses, err := connector.Accounts(ctx)
	if err != nil {
		return ConnectionState{}, NormalizeProviderError(err)
	}
	chainID, err := connector.ChainID(ctx)
	if err != nil {
		return ConnectionState{}, NormalizeProviderError(err)
	}

	address := record.Address
	if !containsAddress(addresses, address) {
		address, err = connector.Account(ctx)
		if err != nil {
			return ConnectionState{}, NormalizeProviderError(err)
		}
		if strings.TrimSpace(address) == "" && len(addresses) > 0 {
			address = addresses[0]
		}
	}
	if strings.TrimSpace(address) == "" {
		return ConnectionState{}, ErrNoAccounts
	}
	return ConnectionState{
		IsConnected: true,
		Address:     address,
		Addresses:   addresses,
		ChainID:     chainID,
		Chains:      connector.SupportedChains(),
		Connector:   connector,
	}, nil
}

func (m *ConnectionManager) failAutoConnect(ctx context.Context, reason error) {
	m.clearStorage(ctx)
	m.logger.Info("auto connect skipped", "reason", reason.Error(), "text_code", autoConnectTextCode(reason))
}

func (m *ConnectionManager) SwitchChain(ctx context.Context, chainID int64) error {
	m.mu.RLock()
	before := m.state.clone()
	m.mu.RUnlock()
	active := before.Connector
	if active == nil || !before.IsConnected {
		return fmt.Errorf("%w: no active connector", ErrNotReady)
	}
	if !active.SupportsChain(chainID) {
		return fmt.Errorf("%w: chain %d is not supported by connector %q", ErrUnsupportedChain, chainID, active.ID())
	}

	if err := active.SwitchChain(ctx, chainID); err != nil {
		err = NormalizeProviderError(err)
		m.mu.Lock()
		if m.state.ConnectorID() != active.ID() {
			m.mu.Unlock()
			return err
		}
		restored := before
		restored.Error = err
		snapshot, ok := m.commitLocked(restored)
		if ok {
			m.persistLocked(ctx, 0)
		}
		m.mu.Unlock()
		m.notify(snapshot)
		m.logger.Warn("switch chain failed", "connector_id", active.ID(), "chain_id", chainID, "error", err)
		return err
	}

	m.mu.Lock()
	if m.state.ConnectorID() != active.ID() || !m.state.IsConnected {
		m.mu.Unlock()
		return nil
	}
	next := m.state.clone()
	next.ChainID = chainID
	next.Error = nil
	snapshot, ok := m.commitLocked(next)
	if ok {
		m.persistLocked(ctx, 0)
	}
	m.mu.Unlock()
	m.notify(snapshot)
	return nil
}

func (m *ConnectionManager) SwitchAccount(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("core: address is required")
	}
	m.mu.RLock()
	active := m.state.Connector
	connected := m.state.IsConnected
	m.mu.RUnlock()
	if active == nil || !connected {
		return fmt.Errorf("%w: no active connector", ErrNotReady)
	}

	if err := active.SwitchAccount(ctx, address); err != nil {
		err = NormalizeProviderError(err)
		m.mu.Lock()
		var snapshot ConnectionState
		changed := false
		if m.state.ConnectorID() == active.ID() {
			next := m.state.clone()
			next.Error = err
			snapshot, changed = m.commitLocked(next)
		}
		m.mu.Unlock()
		if changed {
			m.notify(snapshot)
		}
		return err
	}

	m.mu.Lock()
	if m.state.ConnectorID() != active.ID() || !m.state.IsConnected {
		m.mu.Unlock()
		return nil
	}
	next := m.state.clone()
	next.Address = address
	next.Error = nil
	if !containsAddress(next.Addresses, address) {
		next.Addresses = append(next.Addresses, address)
	}
	snapshot, ok := m.commitLocked(next)
	if ok {
		m.persistLocked(ctx, 0)
	}
	m.mu.Unlock()
	m.notify(snapshot)
	return nil
}

func (m *ConnectionManager) PersistedSession(ctx context.Context) (PersistedConnection, bool, error) {
	if m.storage == nil {
		return PersistedConnection{}, false, nil
	}
	raw, found, err := m.storage.Load(ctx, m.key)
	if err != nil || !found {
		return PersistedConnection{}, false, err
	}
	var record PersistedConnection
	if err := json.Unmarshal(raw, &record); err != nil {
		return PersistedConnection{}, false, fmt.Errorf("%w: %v", ErrInvalidPersistedSession, err)
	}
	return record, true, nil
}

func (m *ConnectionManager) handleEvent(source Connector, event ConnectorEvent) {
	id := source.ID()
	switch e := event.(type) {
	case ConnectedEvent:
		m.onConnected(source, e)
	case DisconnectedEvent:
		m.mu.Lock()
		if m.state.ConnectorID() != id {
			m.mu.Unlock()
			m.logger.Debug("ignoring disconnect from inactive connector", "connector_id", id)
			return
		}
		snapshot, _ := m.commitLocked(ConnectionState{})
		m.mu.Unlock()
		m.clearStorage(context.Background())
		m.notify(snapshot)
	case PermissionChangedEvent:
		m.onPermissionChanged(source, e)
	case ErrorEvent:
		m.mu.Lock()
		if m.state.ConnectorID() != id && m.pendingID != id {
			m.mu.Unlock()
			return
		}
		next := m.state.clone()
		next.Error = NormalizeProviderError(e.Err)
		next.IsConnecting = false
		snapshot, _ := m.commitLocked(next)
		m.mu.Unlock()
		m.notify(snapshot)
	case DisplayURIEvent:
		for _, listener := range m.uriListeners.snapshot() {
			listener(id, e.URI)
		}
	}
}

func (m *ConnectionManager) onConnected(source Connector, event ConnectedEvent) {
	id := source.ID()
	m.mu.Lock()
	if active := m.state.ConnectorID(); active != "" && active != id {
		m.mu.Unlock()
		m.logger.Warn("ignoring connect from connector that does not hold the session", "connector_id", id, "active_connector_id", active)
		return
	}
	if m.pendingID != "" && m.pendingID != id {
		m.mu.Unlock()
		m.logger.Warn("ignoring connect while another connector is connecting", "connector_id", id, "pending_connector_id", m.pendingID)
		return
	}

	address := strings.TrimSpace(event.Address)
	if address == "" && len(event.Addresses) > 0 {
		address = event.Addresses[0]
	}
	chainID := event.ChainID
	if chainID <= 0 && m.state.ConnectorID() == id {
		chainID = m.state.ChainID
	}
	chains := event.Chains
	if chains == nil {
		chains = source.SupportedChains()
	}
	snapshot, ok := m.commitLocked(ConnectionState{
		IsConnected: true,
		Address:     address,
		Addresses:   append([]string(nil), event.Addresses...),
		ChainID:     chainID,
		Chains:      append([]int64(nil), chains...),
		Connector:   source,
	})
	if ok {
		m.pendingID = ""
		m.persistLocked(context.Background(), 0)
	}
	m.mu.Unlock()
	if ok {
		m.notify(snapshot)
	}
}

func (m *ConnectionManager) onPermissionChanged(source Connector, event PermissionChangedEvent) {
	m.mu.Lock()
	if m.state.ConnectorID() != source.ID() {
		m.mu.Unlock()
		return
	}
	next := m.state.clone()
	if event.Addresses != nil {
		next.Addresses = append([]string{}, event.Addresses...)
	}
	if address := strings.TrimSpace(event.Address); address != "" {
		next.Address = address
	} else if len(event.Addresses) > 0 && !containsAddress(event.Addresses, next.Address) {
		next.Address = event.Addresses[0]
	}
	if event.ChainID > 0 {
		next.ChainID = event.ChainID
	}
	if event.Chains != nil {
		next.Chains = append([]int64{}, event.Chains...)
	}
	snapshot, ok := m.commitLocked(next)
	if ok && snapshot.IsConnected {
		m.persistLocked(context.Background(), 0)
	}
	m.mu.Unlock()
	if ok {
		m.notify(snapshot)
	}
}

func (m *ConnectionManager) commitLocked(next ConnectionState) (ConnectionState, bool) {
	if err := next.Validate(); err != nil {
		m.logger.Error("rejecting inconsistent session state", "error", err)
		return m.state.clone(), false
	}
	m.state = next.clone()
	return m.state.clone(), true
}

func (m *ConnectionManager) persistLocked(ctx context.Context, timestamp int64) {
	if m.storage == nil || !m.state.IsConnected {
		return
	}
	if timestamp <= 0 {
		timestamp = m.now().UnixMilli()
	}
	record := PersistedConnection{
		ConnectorID: m.state.ConnectorID(),
		Address:     m.state.Address,
		ChainID:     m.state.ChainID,
		Timestamp:   timestamp,
	}
	if extender, ok := m.state.Connector.(SessionExtender); ok {
		record.ExtensionData = extender.SessionExtensionData()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		m.logger.Error("encode session failed", "error", err)
		return
	}
	if err := m.storage.Save(ctx, m.key, payload); err != nil {
		m.logger.Error("persist session failed", "key", m.key, "error", err)
	}
}

func (m *ConnectionManager) clearStorage(ctx context.Context) {
	if m.storage == nil {
		return
	}
	if err := m.storage.Clear(ctx, m.key); err != nil {
		m.logger.Error("clear session failed", "key", m.key, "error", err)
	}
}

func (m *ConnectionManager) notify(snapshot ConnectionState) {
	for _, listener := range m.listeners.snapshot() {
		listener(snapshot.clone())
	}
}

func normalizeConnectResult(result ConnectResult, requested int64) (ConnectResult, error) {
	result.Address = strings.TrimSpace(result.Address)
	if result.Address == "" && len(result.Addresses) > 0 {
		result.Address = result.Addresses[0]
	}
	if result.Address == "" {
		return ConnectResult{}, ErrNoAccounts
	}
	if len(result.Addresses) == 0 {
		result.Addresses = []string{result.Address}
	}
	if result.ChainID <= 0 {
		result.ChainID = requested
	}
	if result.ChainID <= 0 {
		return ConnectResult{}, fmt.Errorf("%w: connector reported no chain", ErrNotReady)
	}
	return result, nil
}

func autoConnectTextCode(reason error) string {
	mapped := walletErrorMapper(reason)
	if mapped == nil {
		return WalletErrorInternal
	}
	return mapped.TextCode
}
