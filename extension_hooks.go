package wallets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-wallets/core"
)

type NetworkPack struct {
	Name     string
	Networks []core.NetworkConfig
}

type ConnectorPack struct {
	Name       string
	Connectors []core.Connector
}

type CommandQueryBundleFactory func(service core.WalletService) (any, error)

// ExtensionHooks collects named network and connector packs plus extra
// command/query bundles contributed by host packages.
type ExtensionHooks struct {
	mu sync.RWMutex

	networkPacks   map[string]NetworkPack
	connectorPacks map[string]ConnectorPack
	bundles        map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		networkPacks:   map[string]NetworkPack{},
		connectorPacks: map[string]ConnectorPack{},
		bundles:        map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterNetworkPack(pack NetworkPack) error {
	if h == nil {
		return fmt.Errorf("wallets: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("wallets: network pack name is required")
	}
	if len(pack.Networks) == 0 {
		return fmt.Errorf("wallets: network pack %q has no networks", name)
	}
	seen := make(map[int64]struct{}, len(pack.Networks))
	for _, network := range pack.Networks {
		if err := network.Validate(); err != nil {
			return fmt.Errorf("wallets: network pack %q: %w", name, err)
		}
		if _, dup := seen[network.ChainID]; dup {
			return fmt.Errorf("wallets: network pack %q repeats chain %d", name, network.ChainID)
		}
		seen[network.ChainID] = struct{}{}
	}

	normalized := NetworkPack{
		Name:     name,
		Networks: append([]core.NetworkConfig(nil), pack.Networks...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.networkPacks[name]; exists {
		return fmt.Errorf("wallets: network pack %q already registered", name)
	}
	h.networkPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterConnectorPack(pack ConnectorPack) error {
	if h == nil {
		return fmt.Errorf("wallets: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("wallets: connector pack name is required")
	}
	if len(pack.Connectors) == 0 {
		return fmt.Errorf("wallets: connector pack %q has no connectors", name)
	}
	for _, connector := range pack.Connectors {
		if connector == nil {
			return fmt.Errorf("wallets: connector pack %q contains nil connector", name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.connectorPacks[name]; exists {
		return fmt.Errorf("wallets: connector pack %q already registered", name)
	}
	h.connectorPacks[name] = ConnectorPack{
		Name:       name,
		Connectors: append([]core.Connector(nil), pack.Connectors...),
	}
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("wallets: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("wallets: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("wallets: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("wallets: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// Networks returns the built-in catalog followed by every pack network, in
// pack name order. A chain id already present is never replaced.
func (h *ExtensionHooks) Networks() []core.NetworkConfig {
	out := core.BuiltInNetworks()
	seen := make(map[int64]struct{}, len(out))
	for _, network := range out {
		seen[network.ChainID] = struct{}{}
	}
	for _, pack := range h.NetworkPacks() {
		for _, network := range pack.Networks {
			if _, exists := seen[network.ChainID]; exists {
				continue
			}
			seen[network.ChainID] = struct{}{}
			out = append(out, network)
		}
	}
	return out
}

// ServiceOptions turns the registered packs into service options. The
// result is empty when no pack was registered.
func (h *ExtensionHooks) ServiceOptions() []Option {
	if h == nil {
		return nil
	}
	var opts []Option
	if len(h.NetworkPacks()) > 0 {
		opts = append(opts, core.WithNetworks(h.Networks()...))
	}
	var connectors []core.Connector
	for _, pack := range h.ConnectorPacks() {
		connectors = append(connectors, pack.Connectors...)
	}
	if len(connectors) > 0 {
		opts = append(opts, core.WithConnectors(connectors...))
	}
	return opts
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service core.WalletService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("wallets: wallet service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		names = append(names, name)
		factories[name] = factory
	}
	h.mu.RUnlock()
	sort.Strings(names)

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, fmt.Errorf("wallets: build bundle %q: %w", name, err)
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) NetworkPacks() []NetworkPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.networkPacks))
	for name := range h.networkPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NetworkPack, 0, len(names))
	for _, name := range names {
		pack := h.networkPacks[name]
		out = append(out, NetworkPack{
			Name:     pack.Name,
			Networks: append([]core.NetworkConfig(nil), pack.Networks...),
		})
	}
	return out
}

func (h *ExtensionHooks) ConnectorPacks() []ConnectorPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.connectorPacks))
	for name := range h.connectorPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ConnectorPack, 0, len(names))
	for _, name := range names {
		pack := h.connectorPacks[name]
		out = append(out, ConnectorPack{
			Name:       pack.Name,
			Connectors: append([]core.Connector(nil), pack.Connectors...),
		})
	}
	return out
}
