package core

import (
	"errors"
	"testing"
)

func TestBuiltInNetworks(t *testing.T) {
	networks := BuiltInNetworks()
	if len(networks) == 0 {
		t.Fatalf("expected embedded catalog")
	}
	seen := map[int64]bool{}
	for _, network := range networks {
		if !network.IsBuiltIn || network.IsCustom {
			t.Fatalf("expected built-in flags on %d", network.ChainID)
		}
		if err := network.Validate(); err != nil {
			t.Fatalf("invalid built-in network: %v", err)
		}
		if _, ok := network.PrimaryRPCEndpoint(); !ok {
			t.Fatalf("expected primary endpoint on %d", network.ChainID)
		}
		seen[network.ChainID] = true
	}
	for _, id := range []int64{1, 10, 137, 8453, 42161, 11155111} {
		if !seen[id] {
			t.Fatalf("expected chain %d in catalog", id)
		}
	}
}

func TestParseNetworkCatalog(t *testing.T) {
	data := []byte(`
networks:
  - chain_id: 31337
    name: Local
    symbol: ETH
    testnet: true
    rpc_endpoints:
      - url: http://127.0.0.1:8545
      - url: ws://127.0.0.1:8546
        primary: true
`)
	networks, err := ParseNetworkCatalog(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(networks) != 1 || !networks[0].Testnet {
		t.Fatalf("unexpected networks: %+v", networks)
	}
	primary, _ := networks[0].PrimaryRPCEndpoint()
	if primary.URL != "ws://127.0.0.1:8546" {
		t.Fatalf("unexpected primary endpoint: %+v", primary)
	}

	duplicate := []byte(`
networks:
  - {chain_id: 1, name: A, symbol: ETH, rpc_endpoints: [{url: "https://a.example"}]}
  - {chain_id: 1, name: B, symbol: ETH, rpc_endpoints: [{url: "https://b.example"}]}
`)
	if _, err := ParseNetworkCatalog(duplicate); !errors.Is(err, ErrInvalidNetwork) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := ParseNetworkCatalog([]byte("networks: [")); err == nil {
		t.Fatalf("expected decode error")
	}
}
