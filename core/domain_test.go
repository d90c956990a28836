package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConnectionState_Validate(t *testing.T) {
	wallet := newFakeConnector("injected", nil, addrA)
	valid := ConnectionState{IsConnected: true, Address: addrA, ChainID: 1, Connector: wallet}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid state: %v", err)
	}
	if err := (ConnectionState{IsConnecting: true}).Validate(); err != nil {
		t.Fatalf("expected connecting state to be valid: %v", err)
	}

	broken := map[string]ConnectionState{
		"both flags":   {IsConnected: true, IsConnecting: true, Address: addrA, ChainID: 1, Connector: wallet},
		"no address":   {IsConnected: true, ChainID: 1, Connector: wallet},
		"no chain":     {IsConnected: true, Address: addrA, Connector: wallet},
		"no connector": {IsConnected: true, Address: addrA, ChainID: 1},
	}
	for name, state := range broken {
		t.Run(name, func(t *testing.T) {
			if err := state.Validate(); err == nil {
				t.Fatalf("expected invariant violation")
			}
		})
	}
}

func TestConnectionState_Status(t *testing.T) {
	if got := (ConnectionState{}).Status(); got != SessionStatusDisconnected {
		t.Fatalf("unexpected status %s", got)
	}
	if got := (ConnectionState{IsConnecting: true}).Status(); got != SessionStatusConnecting {
		t.Fatalf("unexpected status %s", got)
	}
	if got := (ConnectionState{IsConnected: true}).Status(); got != SessionStatusConnected {
		t.Fatalf("unexpected status %s", got)
	}
}

func TestPersistedConnection_WireFormat(t *testing.T) {
	record := PersistedConnection{ConnectorID: "injected", Address: addrA, ChainID: 137, Timestamp: 1700000000000}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"connectorId": "injected",
		"address":     addrA,
		"chainId":     float64(137),
		"timestamp":   float64(1700000000000),
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Fatalf("unexpected wire format (-want +got):\n%s", diff)
	}
}

func TestPersistedConnection_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := PersistedConnection{Timestamp: now.Add(-25 * time.Hour).UnixMilli()}
	if !record.Expired(now, DefaultSessionTTL) {
		t.Fatalf("expected record older than ttl to be expired")
	}
	record.Timestamp = now.Add(-23 * time.Hour).UnixMilli()
	if record.Expired(now, DefaultSessionTTL) {
		t.Fatalf("expected fresh record")
	}
	if record.Expired(now.Add(1000*time.Hour), 0) {
		t.Fatalf("zero ttl never expires")
	}
}

func TestPersistedConnection_Validate(t *testing.T) {
	err := PersistedConnection{ConnectorID: "injected", Address: addrA, Timestamp: 1}.Validate()
	if !errors.Is(err, ErrInvalidPersistedSession) {
		t.Fatalf("expected invalid record, got %v", err)
	}
}

func TestAddressHelpers(t *testing.T) {
	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	checksummed := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	if got := NormalizeAddress(" " + lower + " "); got != checksummed {
		t.Fatalf("expected checksummed address, got %s", got)
	}
	if got := NormalizeAddress("not-an-address "); got != "not-an-address" {
		t.Fatalf("expected trimmed input, got %s", got)
	}
	if !SameAddress(lower, checksummed) {
		t.Fatalf("expected addresses to match regardless of case")
	}
	if SameAddress("", "") {
		t.Fatalf("blank addresses never match")
	}
}
