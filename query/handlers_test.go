package query

import (
	"context"
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-wallets/core"
	"github.com/google/go-cmp/cmp"
)

type stubReader struct {
	state      core.ConnectionState
	networks   []core.NetworkConfig
	namespaces []string
}

func (s *stubReader) ConnectionState() core.ConnectionState {
	return s.state
}

func (s *stubReader) Network(chainID int64) (core.NetworkConfig, error) {
	for _, network := range s.networks {
		if network.ChainID == chainID {
			return network, nil
		}
	}
	return core.NetworkConfig{}, core.ErrNetworkNotFound
}

func (s *stubReader) Networks() []core.NetworkConfig {
	return s.networks
}

func (s *stubReader) EnabledNetworks(namespace string) []core.NetworkConfig {
	s.namespaces = append(s.namespaces, namespace)
	return s.networks[:1]
}

func (s *stubReader) CurrentNetwork(namespace string) (core.NetworkConfig, error) {
	s.namespaces = append(s.namespaces, namespace)
	if namespace == "empty" {
		return core.NetworkConfig{}, core.ErrNetworkNotFound
	}
	return s.networks[0], nil
}

func newStubReader() *stubReader {
	return &stubReader{
		state: core.ConnectionState{IsConnected: true, ChainID: 1},
		networks: []core.NetworkConfig{
			{ChainID: 1, Name: "Ethereum"},
			{ChainID: 10, Name: "Optimism"},
		},
	}
}

func TestQueries_DelegateToReader(t *testing.T) {
	ctx := context.Background()
	reader := newStubReader()

	state, err := NewConnectionStateQuery(reader).Query(ctx, ConnectionStateMessage{})
	if err != nil || state.Status() != core.SessionStatusConnected {
		t.Fatalf("unexpected connection state: %+v %v", state, err)
	}

	network, err := NewGetNetworkQuery(reader).Query(ctx, GetNetworkMessage{ChainID: 10})
	if err != nil || network.Name != "Optimism" {
		t.Fatalf("unexpected network: %+v %v", network, err)
	}
	if _, err := NewGetNetworkQuery(reader).Query(ctx, GetNetworkMessage{ChainID: 5}); !errors.Is(err, core.ErrNetworkNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := NewListNetworksQuery(reader).Query(ctx, ListNetworksMessage{})
	if err != nil || len(all) != 2 {
		t.Fatalf("unexpected networks: %+v %v", all, err)
	}
	enabled, err := NewEnabledNetworksQuery(reader).Query(ctx, EnabledNetworksMessage{Namespace: "app"})
	if err != nil || len(enabled) != 1 {
		t.Fatalf("unexpected enabled networks: %+v %v", enabled, err)
	}
	current, err := NewCurrentNetworkQuery(reader).Query(ctx, CurrentNetworkMessage{})
	if err != nil || current.ChainID != 1 {
		t.Fatalf("unexpected current network: %+v %v", current, err)
	}
	if _, err := NewCurrentNetworkQuery(reader).Query(ctx, CurrentNetworkMessage{Namespace: "empty"}); !errors.Is(err, core.ErrNetworkNotFound) {
		t.Fatalf("expected not found for empty namespace, got %v", err)
	}

	if diff := cmp.Diff([]string{"app", "", "empty"}, reader.namespaces); diff != "" {
		t.Fatalf("unexpected namespaces (-want +got):\n%s", diff)
	}
}

func TestGetNetworkMessage_ValidateReturnsRichError(t *testing.T) {
	err := (GetNetworkMessage{}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.WalletErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.WalletErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 || validation[0].Field != "chain_id" {
		t.Fatalf("expected chain_id validation field, got %+v", validation)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *CurrentNetworkQuery
	_, err := q.Query(context.Background(), CurrentNetworkMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.WalletErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.WalletErrorInternal, rich.TextCode)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d code, got %d", http.StatusInternalServerError, rich.Code)
	}
}
