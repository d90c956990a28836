package core

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

type RPCEndpoint struct {
	URL     string `json:"url" yaml:"url"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Primary bool   `json:"isPrimary" yaml:"primary"`
}

type BlockExplorer struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type NetworkConfig struct {
	ChainID       int64          `json:"chainId" yaml:"chain_id"`
	Name          string         `json:"name" yaml:"name"`
	Symbol        string         `json:"symbol" yaml:"symbol"`
	RPCEndpoints  []RPCEndpoint  `json:"rpcEndpoints" yaml:"rpc_endpoints"`
	BlockExplorer *BlockExplorer `json:"blockExplorer,omitempty" yaml:"block_explorer,omitempty"`
	Testnet       bool           `json:"testnet,omitempty" yaml:"testnet,omitempty"`
	IsCustom      bool           `json:"isCustom" yaml:"-"`
	IsBuiltIn     bool           `json:"isBuiltIn" yaml:"-"`
	CreatedAt     time.Time      `json:"createdAt" yaml:"-"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty" yaml:"-"`
}

func (n NetworkConfig) PrimaryRPCEndpoint() (RPCEndpoint, bool) {
	for _, endpoint := range n.RPCEndpoints {
		if endpoint.Primary {
			return endpoint, true
		}
	}
	if len(n.RPCEndpoints) > 0 {
		return n.RPCEndpoints[0], true
	}
	return RPCEndpoint{}, false
}

func (n NetworkConfig) Validate() error {
	if n.ChainID <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidNetwork)
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name is required for chain %d", ErrInvalidNetwork, n.ChainID)
	}
	if len(n.RPCEndpoints) == 0 {
		return fmt.Errorf("%w: at least one rpc endpoint is required for chain %d", ErrInvalidNetwork, n.ChainID)
	}
	for _, endpoint := range n.RPCEndpoints {
		if err := validateEndpointURL(endpoint.URL, "http", "https", "ws", "wss"); err != nil {
			return fmt.Errorf("%w: rpc endpoint %q: %v", ErrInvalidNetwork, endpoint.URL, err)
		}
	}
	if n.BlockExplorer != nil && strings.TrimSpace(n.BlockExplorer.URL) != "" {
		if err := validateEndpointURL(n.BlockExplorer.URL, "http", "https"); err != nil {
			return fmt.Errorf("%w: block explorer %q: %v", ErrInvalidNetwork, n.BlockExplorer.URL, err)
		}
	}
	return nil
}

func (n NetworkConfig) clone() NetworkConfig {
	out := n
	out.RPCEndpoints = append([]RPCEndpoint(nil), n.RPCEndpoints...)
	if n.BlockExplorer != nil {
		explorer := *n.BlockExplorer
		out.BlockExplorer = &explorer
	}
	if n.UpdatedAt != nil {
		updated := *n.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

// normalizeRPCEndpoints trims urls, drops duplicates and leaves exactly one
// primary entry.
func normalizeRPCEndpoints(endpoints []RPCEndpoint) []RPCEndpoint {
	out := make([]RPCEndpoint, 0, len(endpoints))
	seen := map[string]struct{}{}
	primary := -1
	for _, endpoint := range endpoints {
		endpoint.URL = strings.TrimSpace(endpoint.URL)
		endpoint.Name = strings.TrimSpace(endpoint.Name)
		if endpoint.URL == "" {
			continue
		}
		if _, dup := seen[endpoint.URL]; dup {
			continue
		}
		seen[endpoint.URL] = struct{}{}
		if endpoint.Primary {
			if primary >= 0 {
				endpoint.Primary = false
			} else {
				primary = len(out)
			}
		}
		out = append(out, endpoint)
	}
	if primary < 0 && len(out) > 0 {
		out[0].Primary = true
	}
	return out
}

func validateEndpointURL(raw string, schemes ...string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if !slices.Contains(schemes, strings.ToLower(parsed.Scheme)) {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

type NamespaceConfig struct {
	EnabledChainIDs []int64 `json:"enabledChainIds"`
	CurrentChainID  int64   `json:"currentChainId,omitempty"`
}

func (n NamespaceConfig) HasCurrent() bool {
	return n.CurrentChainID > 0
}

func (n NamespaceConfig) IsEnabled(chainID int64) bool {
	return slices.Contains(n.EnabledChainIDs, chainID)
}

func (n NamespaceConfig) clone() NamespaceConfig {
	return NamespaceConfig{
		EnabledChainIDs: append([]int64{}, n.EnabledChainIDs...),
		CurrentChainID:  n.CurrentChainID,
	}
}

func (n NamespaceConfig) firstEnabled() int64 {
	if len(n.EnabledChainIDs) == 0 {
		return 0
	}
	return n.EnabledChainIDs[0]
}

type StoredNetworkConfig struct {
	Networks   map[int64]NetworkConfig    `json:"networks"`
	Namespaces map[string]NamespaceConfig `json:"namespaces"`
}

func newStoredNetworkConfig() StoredNetworkConfig {
	return StoredNetworkConfig{
		Networks:   map[int64]NetworkConfig{},
		Namespaces: map[string]NamespaceConfig{},
	}
}

func (s StoredNetworkConfig) clone() StoredNetworkConfig {
	out := newStoredNetworkConfig()
	for id, network := range s.Networks {
		out.Networks[id] = network.clone()
	}
	for name, ns := range s.Namespaces {
		out.Namespaces[name] = ns.clone()
	}
	return out
}

func (s StoredNetworkConfig) sortedChainIDs() []int64 {
	ids := make([]int64, 0, len(s.Networks))
	for id := range s.Networks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
