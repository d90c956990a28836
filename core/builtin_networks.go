package core

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed builtin_networks.yaml
var builtinNetworksYAML []byte

type networkCatalogFile struct {
	Networks []NetworkConfig `yaml:"networks"`
}

func ParseNetworkCatalog(data []byte) ([]NetworkConfig, error) {
	var file networkCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("core: decode network catalog: %w", err)
	}
	out := make([]NetworkConfig, 0, len(file.Networks))
	seen := map[int64]struct{}{}
	for _, network := range file.Networks {
		network.RPCEndpoints = normalizeRPCEndpoints(network.RPCEndpoints)
		if err := network.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[network.ChainID]; dup {
			return nil, fmt.Errorf("%w: duplicate chain id %d in catalog", ErrInvalidNetwork, network.ChainID)
		}
		seen[network.ChainID] = struct{}{}
		network.IsBuiltIn = true
		network.IsCustom = false
		out = append(out, network)
	}
	return out, nil
}

func BuiltInNetworks() []NetworkConfig {
	networks, err := ParseNetworkCatalog(builtinNetworksYAML)
	if err != nil {
		panic(err)
	}
	return networks
}
