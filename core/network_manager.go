package core

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type NetworkManager struct {
	storage  Storage
	key      string
	logger   Logger
	now      func() time.Time
	builtIns []NetworkConfig

	mu     sync.RWMutex
	state  StoredNetworkConfig
	loaded bool

	listeners listenerSet[NetworkListener]
}

type NetworkManagerOption func(*NetworkManager)

func WithNetworkStorageKey(key string) NetworkManagerOption {
	return func(m *NetworkManager) {
		if key = strings.TrimSpace(key); key != "" {
			m.key = key
		}
	}
}

func WithNetworkLogger(logger Logger) NetworkManagerOption {
	return func(m *NetworkManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithNetworkClock(now func() time.Time) NetworkManagerOption {
	return func(m *NetworkManager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithBuiltInNetworks(networks ...NetworkConfig) NetworkManagerOption {
	return func(m *NetworkManager) {
		m.builtIns = append([]NetworkConfig(nil), networks...)
	}
}

func NewNetworkManager(storage Storage, opts ...NetworkManagerOption) *NetworkManager {
	m := &NetworkManager{
		storage: storage,
		key:     DefaultNetworkStorageKey,
		logger:  glog.Nop(),
		now:     func() time.Time { return time.Now().UTC() },
		state:   newStoredNetworkConfig(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

func (m *NetworkManager) Load(ctx context.Context) error {
	state := newStoredNetworkConfig()
	if m.storage != nil {
		raw, found, err := m.storage.Load(ctx, m.key)
		if err != nil {
			return fmt.Errorf("%w: load networks: %v", ErrStorage, err)
		}
		if found && len(raw) > 0 {
			var decoded StoredNetworkConfig
			if err := json.Unmarshal(raw, &decoded); err != nil {
				m.logger.Warn("discarding unreadable network registry", "key", m.key, "error", err)
			} else {
				state = decoded.clone()
			}
		}
	}

	m.mu.Lock()
	m.state = state
	m.loaded = true
	m.mu.Unlock()

	_, err := m.MergeBuiltInNetworks(ctx, m.builtIns...)
	return err
}

func (m *NetworkManager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// MergeBuiltInNetworks inserts every network whose chain id is not in the
// catalog yet. Existing entries, custom or not, are never replaced.
func (m *NetworkManager) MergeBuiltInNetworks(ctx context.Context, networks ...NetworkConfig) (int, error) {
	if len(networks) == 0 {
		return 0, nil
	}
	now := m.now()
	var events []NetworkEvent

	m.mu.Lock()
	for _, network := range networks {
		if _, exists := m.state.Networks[network.ChainID]; exists {
			continue
		}
		network = network.clone()
		network.RPCEndpoints = normalizeRPCEndpoints(network.RPCEndpoints)
		if err := network.Validate(); err != nil {
			m.logger.Warn("skipping invalid built-in network", "chain_id", network.ChainID, "error", err)
			continue
		}
		network.IsBuiltIn = true
		network.IsCustom = false
		if network.CreatedAt.IsZero() {
			network.CreatedAt = now
		}
		m.state.Networks[network.ChainID] = network
		events = append(events, NetworkAddedEvent{Network: network.clone()})
	}
	var err error
	if len(events) > 0 {
		err = m.persistLocked(ctx)
	}
	m.mu.Unlock()

	m.emit(events...)
	return len(events), err
}

func (m *NetworkManager) AddOrUpdateCustomNetwork(ctx context.Context, cfg NetworkConfig) (NetworkConfig, error) {
	m.mu.Lock()
	stored, event, err := m.upsertCustomLocked(cfg)
	if err != nil {
		m.mu.Unlock()
		return NetworkConfig{}, err
	}
	persistErr := m.persistLocked(ctx)
	m.mu.Unlock()

	m.emit(event)
	return stored.clone(), persistErr
}

func (m *NetworkManager) upsertCustomLocked(cfg NetworkConfig) (NetworkConfig, NetworkEvent, error) {
	network := cfg.clone()
	network.Name = strings.TrimSpace(network.Name)
	network.Symbol = strings.TrimSpace(network.Symbol)
	network.RPCEndpoints = normalizeRPCEndpoints(network.RPCEndpoints)
	if err := network.Validate(); err != nil {
		return NetworkConfig{}, nil, err
	}
	network.IsCustom = true
	network.IsBuiltIn = false

	now := m.now()
	existing, exists := m.state.Networks[network.ChainID]
	if exists {
		network.CreatedAt = existing.CreatedAt
		network.UpdatedAt = &now
		m.state.Networks[network.ChainID] = network
		return network, NetworkUpdatedEvent{Network: network.clone()}, nil
	}
	if network.CreatedAt.IsZero() {
		network.CreatedAt = now
	}
	network.UpdatedAt = nil
	m.state.Networks[network.ChainID] = network
	return network, NetworkAddedEvent{Network: network.clone()}, nil
}

func (m *NetworkManager) RemoveCustomNetwork(ctx context.Context, chainID int64) (bool, error) {
	m.mu.Lock()
	network, exists := m.state.Networks[chainID]
	if !exists || !network.IsCustom {
		m.mu.Unlock()
		m.logger.Warn("refusing to remove network that is not custom", "chain_id", chainID, "exists", exists)
		return false, nil
	}

	for name, ns := range m.state.Namespaces {
		if !ns.IsEnabled(chainID) {
			continue
		}
		ns.EnabledChainIDs = slices.DeleteFunc(ns.EnabledChainIDs, func(id int64) bool { return id == chainID })
		if ns.CurrentChainID == chainID {
			ns.CurrentChainID = ns.firstEnabled()
		}
		m.state.Namespaces[name] = ns
	}
	delete(m.state.Networks, chainID)
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.emit(NetworkRemovedEvent{ChainID: chainID})
	return true, err
}

// ToggleNetwork enables or disables chainID in namespace. It returns false
// without mutating anything when disabling the last enabled network.
func (m *NetworkManager) ToggleNetwork(ctx context.Context, namespace string, chainID int64, enabled bool) (bool, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return false, fmt.Errorf("core: namespace is required")
	}
	if chainID <= 0 {
		return false, fmt.Errorf("%w: chain id must be positive", ErrInvalidNetwork)
	}

	m.mu.Lock()
	ns, exists := m.state.Namespaces[namespace]
	if !exists {
		ns = NamespaceConfig{EnabledChainIDs: []int64{}}
	}

	if enabled {
		if ns.IsEnabled(chainID) {
			m.mu.Unlock()
			return true, nil
		}
		first := len(ns.EnabledChainIDs) == 0 && !ns.HasCurrent()
		ns.EnabledChainIDs = append(ns.EnabledChainIDs, chainID)
		if first {
			ns.CurrentChainID = chainID
		}
	} else {
		if !ns.IsEnabled(chainID) {
			m.mu.Unlock()
			return true, nil
		}
		if len(ns.EnabledChainIDs) == 1 {
			m.mu.Unlock()
			m.logger.Warn("refusing to disable the last enabled network",
				"namespace", namespace, "chain_id", chainID, "text_code", WalletErrorLastNetwork)
			return false, nil
		}
		ns.EnabledChainIDs = slices.DeleteFunc(ns.EnabledChainIDs, func(id int64) bool { return id == chainID })
		if ns.CurrentChainID == chainID {
			ns.CurrentChainID = ns.firstEnabled()
		}
	}
	m.state.Namespaces[namespace] = ns
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.emit(NetworkToggledEvent{Namespace: namespace, ChainID: chainID, Enabled: enabled})
	return true, err
}

func (m *NetworkManager) SetCurrentNetwork(ctx context.Context, namespace string, chainID int64) (bool, error) {
	namespace = strings.TrimSpace(namespace)
	m.mu.Lock()
	ns, exists := m.state.Namespaces[namespace]
	if !exists || !ns.IsEnabled(chainID) {
		m.mu.Unlock()
		m.logger.Warn("refusing to select a network that is not enabled", "namespace", namespace, "chain_id", chainID)
		return false, nil
	}
	if ns.CurrentChainID == chainID {
		m.mu.Unlock()
		return true, nil
	}
	ns.CurrentChainID = chainID
	m.state.Namespaces[namespace] = ns
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.emit(CurrentNetworkChangedEvent{Namespace: namespace, ChainID: chainID})
	return true, err
}

func (m *NetworkManager) InitializeNamespace(ctx context.Context, namespace string, defaults ...int64) (bool, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return false, fmt.Errorf("core: namespace is required")
	}

	m.mu.Lock()
	if _, exists := m.state.Namespaces[namespace]; exists {
		m.mu.Unlock()
		return false, nil
	}
	seeded := make([]int64, 0, len(defaults))
	if len(defaults) > 0 {
		for _, id := range defaults {
			if _, known := m.state.Networks[id]; !known || slices.Contains(seeded, id) {
				continue
			}
			seeded = append(seeded, id)
		}
	} else {
		seeded = append(seeded, m.state.sortedChainIDs()...)
	}
	ns := NamespaceConfig{EnabledChainIDs: seeded}
	ns.CurrentChainID = ns.firstEnabled()
	m.state.Namespaces[namespace] = ns
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	return true, err
}

func (m *NetworkManager) AddRPCEndpoint(ctx context.Context, chainID int64, endpoint RPCEndpoint) (NetworkConfig, error) {
	return m.editNetwork(ctx, chainID, func(network *NetworkConfig) error {
		endpoint.URL = strings.TrimSpace(endpoint.URL)
		for _, existing := range network.RPCEndpoints {
			if existing.URL == endpoint.URL {
				return fmt.Errorf("%w: rpc endpoint %q already exists", ErrInvalidNetwork, endpoint.URL)
			}
		}
		if endpoint.Primary {
			for i := range network.RPCEndpoints {
				network.RPCEndpoints[i].Primary = false
			}
		}
		network.RPCEndpoints = append(network.RPCEndpoints, endpoint)
		return nil
	})
}

func (m *NetworkManager) RemoveRPCEndpoint(ctx context.Context, chainID int64, rawURL string) (NetworkConfig, error) {
	rawURL = strings.TrimSpace(rawURL)
	return m.editNetwork(ctx, chainID, func(network *NetworkConfig) error {
		before := len(network.RPCEndpoints)
		network.RPCEndpoints = slices.DeleteFunc(network.RPCEndpoints, func(endpoint RPCEndpoint) bool {
			return endpoint.URL == rawURL
		})
		if len(network.RPCEndpoints) == before {
			return fmt.Errorf("%w: rpc endpoint %q not found", ErrInvalidNetwork, rawURL)
		}
		return nil
	})
}

func (m *NetworkManager) SetPrimaryRPCEndpoint(ctx context.Context, chainID int64, rawURL string) (NetworkConfig, error) {
	rawURL = strings.TrimSpace(rawURL)
	return m.editNetwork(ctx, chainID, func(network *NetworkConfig) error {
		found := false
		for i := range network.RPCEndpoints {
			network.RPCEndpoints[i].Primary = network.RPCEndpoints[i].URL == rawURL
			found = found || network.RPCEndpoints[i].Primary
		}
		if !found {
			return fmt.Errorf("%w: rpc endpoint %q not found", ErrInvalidNetwork, rawURL)
		}
		return nil
	})
}

func (m *NetworkManager) editNetwork(ctx context.Context, chainID int64, edit func(*NetworkConfig) error) (NetworkConfig, error) {
	m.mu.Lock()
	existing, exists := m.state.Networks[chainID]
	if !exists {
		m.mu.Unlock()
		return NetworkConfig{}, fmt.Errorf("%w: chain %d", ErrNetworkNotFound, chainID)
	}
	network := existing.clone()
	if err := edit(&network); err != nil {
		m.mu.Unlock()
		return NetworkConfig{}, err
	}
	stored, event, err := m.upsertCustomLocked(network)
	if err != nil {
		m.mu.Unlock()
		return NetworkConfig{}, err
	}
	persistErr := m.persistLocked(ctx)
	m.mu.Unlock()

	m.emit(event)
	return stored.clone(), persistErr
}

func (m *NetworkManager) Network(chainID int64) (NetworkConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	network, ok := m.state.Networks[chainID]
	if !ok {
		return NetworkConfig{}, false
	}
	return network.clone(), true
}

func (m *NetworkManager) Networks() []NetworkConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.state.sortedChainIDs()
	out := make([]NetworkConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.state.Networks[id].clone())
	}
	return out
}

func (m *NetworkManager) CustomNetworks() []NetworkConfig {
	return slices.DeleteFunc(m.Networks(), func(network NetworkConfig) bool { return !network.IsCustom })
}

func (m *NetworkManager) Namespace(namespace string) (NamespaceConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.state.Namespaces[strings.TrimSpace(namespace)]
	if !ok {
		return NamespaceConfig{}, false
	}
	return ns.clone(), true
}

func (m *NetworkManager) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.state.Namespaces))
	for name := range m.state.Namespaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *NetworkManager) EnabledChainIDs(namespace string) []int64 {
	ns, _ := m.Namespace(namespace)
	return append([]int64{}, ns.EnabledChainIDs...)
}

func (m *NetworkManager) EnabledNetworks(namespace string) []NetworkConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns := m.state.Namespaces[strings.TrimSpace(namespace)]
	out := make([]NetworkConfig, 0, len(ns.EnabledChainIDs))
	for _, id := range ns.EnabledChainIDs {
		if network, ok := m.state.Networks[id]; ok {
			out = append(out, network.clone())
		}
	}
	return out
}

func (m *NetworkManager) IsEnabled(namespace string, chainID int64) bool {
	ns, _ := m.Namespace(namespace)
	return ns.IsEnabled(chainID)
}

func (m *NetworkManager) CurrentChainID(namespace string) (int64, bool) {
	ns, ok := m.Namespace(namespace)
	if !ok || !ns.HasCurrent() {
		return 0, false
	}
	return ns.CurrentChainID, true
}

func (m *NetworkManager) CurrentNetwork(namespace string) (NetworkConfig, bool) {
	id, ok := m.CurrentChainID(namespace)
	if !ok {
		return NetworkConfig{}, false
	}
	return m.Network(id)
}

func (m *NetworkManager) Snapshot() StoredNetworkConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

func (m *NetworkManager) Subscribe(listener NetworkListener) func() {
	if listener == nil {
		return func() {}
	}
	return m.listeners.add(listener)
}

func (m *NetworkManager) emit(events ...NetworkEvent) {
	if len(events) == 0 {
		return
	}
	listeners := m.listeners.snapshot()
	for _, event := range events {
		if event == nil {
			continue
		}
		m.logger.Debug("network registry event", "event", NetworkEventName(event))
		for _, listener := range listeners {
			listener(event)
		}
	}
}

func (m *NetworkManager) persistLocked(ctx context.Context) error {
	if m.storage == nil {
		return nil
	}
	payload, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("core: encode network registry: %w", err)
	}
	if err := m.storage.Save(ctx, m.key, payload); err != nil {
		m.logger.Error("persist network registry failed", "key", m.key, "error", err)
		return fmt.Errorf("%w: save networks: %v", ErrStorage, err)
	}
	return nil
}
