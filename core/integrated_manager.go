package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	glog "github.com/goliatone/go-logger/glog"
)

type IntegratedManager struct {
	connections *ConnectionManager
	networks    *NetworkManager
	namespace   string
	logger      Logger
	ctx         context.Context

	// suppress is non-zero while this manager drives a switch itself, so the
	// resulting session notifications do not feed back into the registry.
	suppress atomic.Int32

	mu              sync.Mutex
	lastConnectorID string
	unsubscribes    []func()
}

type IntegratedManagerOption func(*IntegratedManager)

func WithIntegrationLogger(logger Logger) IntegratedManagerOption {
	return func(m *IntegratedManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithIntegrationContext(ctx context.Context) IntegratedManagerOption {
	return func(m *IntegratedManager) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

func NewIntegratedManager(
	connections *ConnectionManager,
	networks *NetworkManager,
	namespace string,
	opts ...IntegratedManagerOption,
) (*IntegratedManager, error) {
	if connections == nil {
		return nil, fmt.Errorf("core: connection manager is required")
	}
	if networks == nil {
		return nil, fmt.Errorf("core: network manager is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("core: namespace is required")
	}
	m := &IntegratedManager{
		connections: connections,
		networks:    networks,
		namespace:   namespace,
		logger:      glog.Nop(),
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	m.unsubscribes = append(m.unsubscribes,
		networks.Subscribe(m.handleNetworkEvent),
		connections.Subscribe(m.handleSessionChange),
	)
	return m, nil
}

func (m *IntegratedManager) Namespace() string { return m.namespace }

func (m *IntegratedManager) Connections() *ConnectionManager { return m.connections }

func (m *IntegratedManager) Networks() *NetworkManager { return m.networks }

func (m *IntegratedManager) Close() {
	m.mu.Lock()
	unsubscribes := m.unsubscribes
	m.unsubscribes = nil
	m.mu.Unlock()
	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
}

func (m *IntegratedManager) Initialize(ctx context.Context, autoConnect bool, defaults ...int64) (bool, error) {
	if !m.networks.Loaded() {
		if err := m.networks.Load(ctx); err != nil {
			return false, err
		}
	}
	if _, err := m.networks.InitializeNamespace(ctx, m.namespace, defaults...); err != nil {
		return false, err
	}
	m.PropagateChains(ctx)
	if !autoConnect {
		return false, nil
	}
	return m.connections.AutoConnect(ctx), nil
}

func (m *IntegratedManager) RegisterConnector(connector Connector) error {
	if err := m.connections.RegisterConnector(connector); err != nil {
		return err
	}
	if ns, ok := m.networks.Namespace(m.namespace); ok {
		if cache, ok := connector.(ChainCache); ok {
			cache.SetSupportedChains(ns.EnabledChainIDs)
		}
	}
	return nil
}

func (m *IntegratedManager) Connect(ctx context.Context, connectorID string, chainID int64) (ConnectionState, error) {
	if chainID <= 0 {
		current, ok := m.networks.CurrentChainID(m.namespace)
		if !ok {
			return m.connections.State(), fmt.Errorf("%w: no current network for namespace %q", ErrUnsupportedChain, m.namespace)
		}
		chainID = current
	}
	if err := m.requireEnabled(chainID); err != nil {
		return m.connections.State(), err
	}
	return m.connections.ConnectByID(ctx, connectorID, chainID)
}

func (m *IntegratedManager) Disconnect(ctx context.Context) error {
	return m.connections.Disconnect(ctx)
}

func (m *IntegratedManager) AutoConnect(ctx context.Context) bool {
	return m.connections.AutoConnect(ctx)
}

func (m *IntegratedManager) SwitchChain(ctx context.Context, chainID int64) error {
	if err := m.requireEnabled(chainID); err != nil {
		return err
	}
	return m.connections.SwitchChain(ctx, chainID)
}

func (m *IntegratedManager) SwitchAccount(ctx context.Context, address string) error {
	return m.connections.SwitchAccount(ctx, address)
}

func (m *IntegratedManager) requireEnabled(chainID int64) error {
	if _, exists := m.networks.Namespace(m.namespace); !exists {
		return nil
	}
	if !m.networks.IsEnabled(m.namespace, chainID) {
		return fmt.Errorf("%w: chain %d is not enabled for namespace %q", ErrUnsupportedChain, chainID, m.namespace)
	}
	return nil
}

func (m *IntegratedManager) PropagateChains(ctx context.Context) {
	ns, ok := m.networks.Namespace(m.namespace)
	if !ok {
		return
	}
	chains := ns.EnabledChainIDs
	activeID := m.connections.State().ConnectorID()
	for _, connector := range m.connections.Connectors() {
		if cache, ok := connector.(ChainCache); ok {
			cache.SetSupportedChains(chains)
		}
		if connector.ID() != activeID {
			continue
		}
		updater, ok := connector.(ChainUpdater)
		if !ok {
			continue
		}
		if err := updater.UpdateChains(ctx, append([]int64{}, chains...)); err != nil {
			m.logger.Warn("connector chain update failed", "connector_id", connector.ID(), "error", err)
		}
	}
}

func (m *IntegratedManager) handleNetworkEvent(event NetworkEvent) {
	ctx := m.ctx
	session := m.connections.State()

	switch e := event.(type) {
	case NetworkAddedEvent:
		m.logger.Debug("network added", "chain_id", e.Network.ChainID)
	case NetworkRemovedEvent:
		m.PropagateChains(ctx)
		if !session.IsConnected || session.ChainID != e.ChainID {
			return
		}
		target, ok := m.networks.CurrentChainID(m.namespace)
		m.relocateSession(ctx, e.ChainID, target, ok, "network removed")
	case NetworkToggledEvent:
		if e.Namespace != m.namespace {
			return
		}
		m.PropagateChains(ctx)
		if e.Enabled || !session.IsConnected || session.ChainID != e.ChainID {
			return
		}
		target, ok := m.firstEnabled()
		m.relocateSession(ctx, e.ChainID, target, ok, "network disabled")
	case NetworkUpdatedEvent:
		chainID := e.Network.ChainID
		if session.IsConnected {
			if session.ChainID == chainID {
				m.PropagateChains(ctx)
			}
			return
		}
		if m.networks.IsEnabled(m.namespace, chainID) {
			m.PropagateChains(ctx)
		}
	case CurrentNetworkChangedEvent:
		if e.Namespace != m.namespace || !session.IsConnected || session.ChainID == e.ChainID {
			return
		}
		if err := m.connections.SwitchChain(ctx, e.ChainID); err != nil {
			m.logger.Warn("switch to selected network failed",
				"namespace", m.namespace, "chain_id", e.ChainID, "error", err)
		}
	}
}

// relocateSession moves the session off a network the registry no longer
// offers. One candidate is tried; on failure the session is disconnected.
func (m *IntegratedManager) relocateSession(ctx context.Context, from, target int64, ok bool, reason string) {
	if !ok || target <= 0 {
		m.logger.Info("no network left for session, disconnecting", "reason", reason, "chain_id", from)
		_ = m.connections.Disconnect(ctx)
		return
	}
	m.suppress.Add(1)
	err := m.connections.SwitchChain(ctx, target)
	m.suppress.Add(-1)
	if err == nil {
		m.logger.Info("session moved to another network", "reason", reason, "from_chain_id", from, "chain_id", target)
		return
	}
	m.logger.Warn("session switch failed, disconnecting",
		"reason", reason, "from_chain_id", from, "chain_id", target, "error", err)
	_ = m.connections.Disconnect(ctx)
}

func (m *IntegratedManager) firstEnabled() (int64, bool) {
	ns, ok := m.networks.Namespace(m.namespace)
	if !ok {
		return 0, false
	}
	first := ns.firstEnabled()
	return first, first > 0
}

func (m *IntegratedManager) handleSessionChange(state ConnectionState) {
	if !state.IsConnected {
		return
	}
	connectorID := state.ConnectorID()
	m.mu.Lock()
	previous := m.lastConnectorID
	m.lastConnectorID = connectorID
	m.mu.Unlock()
	if previous != "" && previous != connectorID {
		m.logger.Info("session connector changed", "from_connector_id", previous, "connector_id", connectorID)
	}

	if m.suppress.Load() > 0 {
		return
	}
	if current, ok := m.networks.CurrentChainID(m.namespace); ok && current == state.ChainID {
		return
	}

	ctx := m.ctx
	if !m.networks.IsEnabled(m.namespace, state.ChainID) {
		if _, err := m.networks.ToggleNetwork(ctx, m.namespace, state.ChainID, true); err != nil {
			m.logger.Warn("enable wallet network failed", "namespace", m.namespace, "chain_id", state.ChainID, "error", err)
			return
		}
	}
	if _, err := m.networks.SetCurrentNetwork(ctx, m.namespace, state.ChainID); err != nil {
		m.logger.Warn("select wallet network failed", "namespace", m.namespace, "chain_id", state.ChainID, "error", err)
	}
}
