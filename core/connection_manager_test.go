package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestConnectionManager(storage Storage, clock *testClock, opts ...ConnectionManagerOption) *ConnectionManager {
	base := []ConnectionManagerOption{WithConnectionClock(clock.Now)}
	return NewConnectionManager(storage, append(base, opts...)...)
}

func TestConnectionManager_ConnectPersistsSession(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	clock := newTestClock()
	m := newTestConnectionManager(storage, clock)
	wallet := newFakeConnector("injected", nil, addrA, addrB)
	states := &recordedStates{}
	m.Subscribe(states.listener)

	state, err := m.Connect(ctx, wallet, 137)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !state.IsConnected || state.Address != addrA || state.ChainID != 137 || state.ConnectorID() != "injected" {
		t.Fatalf("unexpected state: %+v", state)
	}
	if diff := cmp.Diff([]string{addrA, addrB}, state.Addresses); diff != "" {
		t.Fatalf("unexpected addresses (-want +got):\n%s", diff)
	}

	want := []SessionStatus{SessionStatusDisconnected, SessionStatusConnecting, SessionStatusConnected}
	if diff := cmp.Diff(want, states.statuses()); diff != "" {
		t.Fatalf("unexpected transitions (-want +got):\n%s", diff)
	}

	record, ok := storage.session(t)
	if !ok {
		t.Fatalf("expected persisted session")
	}
	wantRecord := PersistedConnection{
		ConnectorID: "injected",
		Address:     addrA,
		ChainID:     137,
		Timestamp:   clock.Now().UnixMilli(),
	}
	if diff := cmp.Diff(wantRecord, record); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
	if _, registered := m.Connector("injected"); !registered {
		t.Fatalf("expected connect to register the connector")
	}
}

func TestConnectionManager_ConnectFailureRecordsError(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	wallet.connectErr = &ProviderError{Code: ProviderCodeUserRejected, Message: "User rejected the request."}

	state, err := m.Connect(ctx, wallet, 1)
	if !IsUserRejected(err) {
		t.Fatalf("expected user rejected, got %v", err)
	}
	if state.IsConnected || state.IsConnecting || !IsUserRejected(state.Error) {
		t.Fatalf("unexpected state: %+v", state)
	}
	if storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected no persisted session")
	}
}

func TestConnectionManager_ConnectWithoutAccounts(t *testing.T) {
	m := newTestConnectionManager(newMemoryStorage(), newTestClock())
	wallet := newFakeConnector("injected", nil)

	_, err := m.Connect(context.Background(), wallet, 1)
	if !errors.Is(err, ErrNoAccounts) {
		t.Fatalf("expected no accounts, got %v", err)
	}
	if m.State().IsConnected {
		t.Fatalf("session must stay disconnected")
	}
}

func TestConnectionManager_ConnectReplacesActiveConnector(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	log := &callLog{}
	storage.log = log
	first := newFakeConnector("a", nil, addrA)
	second := newFakeConnector("b", nil, addrB)
	first.log, second.log = log, log

	if _, err := m.Connect(ctx, first, 1); err != nil {
		t.Fatalf("connect a: %v", err)
	}
	mark := len(log.all())
	state, err := m.Connect(ctx, second, 10)
	if err != nil {
		t.Fatalf("connect b: %v", err)
	}
	if first.disconnects() != 1 {
		t.Fatalf("expected first connector to be disconnected once, got %d", first.disconnects())
	}
	disconnectAt := log.index("disconnect:a", mark)
	connectAt := log.index("connect:b", mark)
	if disconnectAt < 0 || connectAt < 0 || disconnectAt > connectAt {
		t.Fatalf("expected a to disconnect before b connects, got %v", log.all()[mark:])
	}
	if state.ConnectorID() != "b" || state.Address != addrB || state.ChainID != 10 {
		t.Fatalf("unexpected state: %+v", state)
	}
	record, _ := storage.session(t)
	if record.ConnectorID != "b" {
		t.Fatalf("expected record for b, got %+v", record)
	}

	// events from the replaced connector no longer move the session
	first.Emit(ConnectedEvent{Address: addrC, Addresses: []string{addrC}, ChainID: 1})
	first.Emit(DisconnectedEvent{})
	if got := m.State(); got.ConnectorID() != "b" || !got.IsConnected {
		t.Fatalf("stale connector changed the session: %+v", got)
	}
}

func TestConnectionManager_DisconnectAlwaysClears(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	log := &callLog{}
	storage.log = log
	wallet := newFakeConnector("injected", nil, addrA)
	wallet.log = log
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	wallet.set(func(c *fakeConnector) { c.disconnectErr = errBoom })

	mark := len(log.all())
	if err := m.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect must not fail: %v", err)
	}
	clearAt := log.index("clear:"+DefaultConnectionStorageKey, mark)
	disconnectAt := log.index("disconnect:injected", mark)
	if clearAt < 0 || disconnectAt < 0 || clearAt > disconnectAt {
		t.Fatalf("expected storage cleared before the connector disconnects, got %v", log.all()[mark:])
	}
	state := m.State()
	if state.IsConnected || state.Connector != nil {
		t.Fatalf("expected cleared session, got %+v", state)
	}
	if !errors.Is(state.Error, errBoom) {
		t.Fatalf("expected connector error to be recorded, got %v", state.Error)
	}
	if storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected persisted session to be cleared")
	}
	if err := m.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect without session: %v", err)
	}
}

func TestConnectionManager_DisconnectFollowsConnectorEvent(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	wallet.emitOnDisconnect = true
	states := &recordedStates{}
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	unsubscribe := m.Subscribe(states.listener)
	defer unsubscribe()

	if err := m.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	state := m.State()
	if state.IsConnected || state.Connector != nil || state.Error != nil {
		t.Fatalf("expected clean disconnected state, got %+v", state)
	}
	if storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected persisted session to be cleared")
	}
	if wallet.disconnects() != 1 {
		t.Fatalf("expected one disconnect, got %d", wallet.disconnects())
	}
	statuses := states.statuses()
	if len(statuses) != 2 {
		t.Fatalf("expected initial snapshot plus one clearing notification, got %v", statuses)
	}
}

func TestConnectionManager_ReconnectFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("a", nil, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	wallet.set(func(c *fakeConnector) { c.connectErr = &ProviderError{Code: ProviderCodeUserRejected} })

	state, err := m.Connect(ctx, wallet, 137)
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected user rejected, got %v", err)
	}
	if !state.IsConnected || state.ConnectorID() != "a" || state.ChainID != 1 || state.Address != addrA {
		t.Fatalf("expected previous session to be restored, got %+v", state)
	}
	if !errors.Is(state.Error, ErrUserRejected) {
		t.Fatalf("expected error recorded on the restored session, got %v", state.Error)
	}
	record, ok := storage.session(t)
	if !ok || record.ConnectorID != "a" || record.ChainID != 1 {
		t.Fatalf("expected persisted session to survive, got %+v %v", record, ok)
	}
	if wallet.disconnects() != 0 {
		t.Fatalf("reconnect must not disconnect the wallet, got %d", wallet.disconnects())
	}

	wallet.Emit(PermissionChangedEvent{ChainID: 10})
	if got := m.State().ChainID; got != 10 {
		t.Fatalf("expected wallet events to keep applying, got chain %d", got)
	}
	wallet.Emit(DisconnectedEvent{})
	if m.State().IsConnected || storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected disconnected event to clear the restored session")
	}
}

func persistSession(t *testing.T, storage *memoryStorage, record PersistedConnection) {
	t.Helper()
	storage.put(t, DefaultConnectionStorageKey, record)
}

func TestConnectionManager_AutoConnectRestoresSession(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	clock := newTestClock()
	savedAt := clock.Now().Add(-time.Hour).UnixMilli()
	persistSession(t, storage, PersistedConnection{ConnectorID: "injected", Address: addrB, ChainID: 1, Timestamp: savedAt})

	m := newTestConnectionManager(storage, clock)
	wallet := newFakeConnector("injected", nil, addrA, addrB)
	wallet.authorized = true
	wallet.chainID = 137
	if err := m.RegisterConnector(wallet); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !m.AutoConnect(ctx) {
		t.Fatalf("expected session to be restored")
	}
	state := m.State()
	if state.Address != addrB || state.ChainID != 137 || state.ConnectorID() != "injected" {
		t.Fatalf("unexpected restored state: %+v", state)
	}
	record, _ := storage.session(t)
	if record.Timestamp != savedAt || record.ChainID != 137 {
		t.Fatalf("expected original timestamp and live chain, got %+v", record)
	}
	if !m.AutoConnect(ctx) {
		t.Fatalf("expected auto connect to report an existing session")
	}
}

func TestConnectionManager_AutoConnectFallsBackToLiveAccount(t *testing.T) {
	storage := newMemoryStorage()
	clock := newTestClock()
	persistSession(t, storage, PersistedConnection{ConnectorID: "injected", Address: addrC, ChainID: 1, Timestamp: clock.Now().UnixMilli()})

	m := newTestConnectionManager(storage, clock)
	wallet := newFakeConnector("injected", nil, addrA)
	wallet.authorized = true
	_ = m.RegisterConnector(wallet)

	if !m.AutoConnect(context.Background()) {
		t.Fatalf("expected session to be restored")
	}
	if got := m.State().Address; got != addrA {
		t.Fatalf("expected live account, got %s", got)
	}
}

func TestConnectionManager_AutoConnectFailures(t *testing.T) {
	clock := newTestClock()
	fresh := clock.Now().UnixMilli()

	cases := []struct {
		name      string
		record    any
		register  bool
		authorize bool
	}{
		{
			name:      "expired after 25 hours",
			record:    PersistedConnection{ConnectorID: "injected", Address: addrA, ChainID: 1, Timestamp: clock.Now().Add(-25 * time.Hour).UnixMilli()},
			register:  true,
			authorize: true,
		},
		{
			name:      "connector missing",
			record:    PersistedConnection{ConnectorID: "injected", Address: addrA, ChainID: 1, Timestamp: fresh},
			authorize: true,
		},
		{
			name:     "not authorized",
			record:   PersistedConnection{ConnectorID: "injected", Address: addrA, ChainID: 1, Timestamp: fresh},
			register: true,
		},
		{
			name:      "incomplete record",
			record:    map[string]any{"connectorId": "injected", "timestamp": fresh},
			register:  true,
			authorize: true,
		},
		{
			name:      "not json",
			record:    "garbage",
			register:  true,
			authorize: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := newMemoryStorage()
			storage.put(t, DefaultConnectionStorageKey, tc.record)
			m := newTestConnectionManager(storage, clock)
			wallet := newFakeConnector("injected", nil, addrA)
			wallet.authorized = tc.authorize
			if tc.register {
				_ = m.RegisterConnector(wallet)
			}

			if m.AutoConnect(context.Background()) {
				t.Fatalf("expected auto connect to fail")
			}
			if m.State().IsConnected {
				t.Fatalf("expected disconnected session")
			}
			if storage.has(DefaultConnectionStorageKey) {
				t.Fatalf("expected record to be cleared")
			}
		})
	}
}

func TestConnectionManager_AutoConnectWithoutRecord(t *testing.T) {
	m := newTestConnectionManager(newMemoryStorage(), newTestClock())
	if m.AutoConnect(context.Background()) {
		t.Fatalf("expected false without a record")
	}
}

func TestConnectionManager_SwitchChain(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())

	if err := m.SwitchChain(ctx, 10); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}

	wallet := newFakeConnector("injected", []int64{1, 10}, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := m.SwitchChain(ctx, 137); !errors.Is(err, ErrUnsupportedChain) {
		t.Fatalf("expected unsupported chain, got %v", err)
	}
	if err := m.SwitchChain(ctx, 10); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := m.State().ChainID; got != 10 {
		t.Fatalf("expected chain 10, got %d", got)
	}
	record, _ := storage.session(t)
	if record.ChainID != 10 {
		t.Fatalf("expected persisted chain 10, got %d", record.ChainID)
	}
}

func TestConnectionManager_SwitchChainFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	wallet.set(func(c *fakeConnector) {
		c.switchErr = &ProviderError{Code: ProviderCodeChainNotRecognized, Message: "Unrecognized chain ID"}
	})

	err := m.SwitchChain(ctx, 10)
	if !IsChainNotRecognized(err) {
		t.Fatalf("expected chain not recognized, got %v", err)
	}
	state := m.State()
	if !state.IsConnected || state.ChainID != 1 || !IsChainNotRecognized(state.Error) {
		t.Fatalf("expected pre-switch session with error, got %+v", state)
	}
	record, _ := storage.session(t)
	if record.ChainID != 1 {
		t.Fatalf("expected persisted chain 1, got %d", record.ChainID)
	}
}

func TestConnectionManager_SwitchAccount(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := m.SwitchAccount(ctx, addrB); err != nil {
		t.Fatalf("switch account: %v", err)
	}
	state := m.State()
	if state.Address != addrB {
		t.Fatalf("expected address %s, got %s", addrB, state.Address)
	}
	if diff := cmp.Diff([]string{addrA, addrB}, state.Addresses); diff != "" {
		t.Fatalf("unexpected addresses (-want +got):\n%s", diff)
	}
	record, _ := storage.session(t)
	if record.Address != addrB {
		t.Fatalf("expected persisted address %s, got %s", addrB, record.Address)
	}

	wallet.set(func(c *fakeConnector) { c.switchAccountErr = errBoom })
	if err := m.SwitchAccount(ctx, addrC); !errors.Is(err, errBoom) {
		t.Fatalf("expected connector error, got %v", err)
	}
	if got := m.State(); got.Address != addrB || !errors.Is(got.Error, errBoom) {
		t.Fatalf("unexpected state after failed switch: %+v", got)
	}
	if err := m.SwitchAccount(ctx, " "); err == nil {
		t.Fatalf("expected blank address to be rejected")
	}
}

func TestConnectionManager_PermissionChangedEvent(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA, addrB)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}

	wallet.Emit(PermissionChangedEvent{ChainID: 137})
	if got := m.State(); got.ChainID != 137 || got.Address != addrA {
		t.Fatalf("unexpected state after chain change: %+v", got)
	}

	wallet.Emit(PermissionChangedEvent{Addresses: []string{addrB}})
	state := m.State()
	if state.Address != addrB {
		t.Fatalf("expected address to fall back to %s, got %s", addrB, state.Address)
	}
	record, _ := storage.session(t)
	if record.Address != addrB || record.ChainID != 137 {
		t.Fatalf("unexpected persisted record: %+v", record)
	}
}

func TestConnectionManager_DisconnectedEvent(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	other := newFakeConnector("other", nil, addrB)
	_ = m.RegisterConnector(other)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}

	other.Emit(DisconnectedEvent{})
	if !m.State().IsConnected {
		t.Fatalf("inactive connector must not end the session")
	}
	wallet.Emit(DisconnectedEvent{})
	if m.State().IsConnected {
		t.Fatalf("expected session to end")
	}
	if storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected persisted session to be cleared")
	}
}

func TestConnectionManager_ConnectedEventFromIdleConnector(t *testing.T) {
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("walletconnect", nil, addrA)
	_ = m.RegisterConnector(wallet)

	wallet.Emit(ConnectedEvent{Addresses: []string{addrA}, ChainID: 10})
	state := m.State()
	if !state.IsConnected || state.Address != addrA || state.ChainID != 10 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if !storage.has(DefaultConnectionStorageKey) {
		t.Fatalf("expected persisted session")
	}
}

func TestConnectionManager_ErrorAndDisplayURIEvents(t *testing.T) {
	ctx := context.Background()
	m := newTestConnectionManager(newMemoryStorage(), newTestClock())
	wallet := newFakeConnector("walletconnect", nil, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}

	var uris []string
	unsubscribe := m.SubscribeDisplayURI(func(connectorID string, uri string) {
		uris = append(uris, connectorID+"|"+uri)
	})
	wallet.Emit(DisplayURIEvent{URI: "wc:abc@2"})
	unsubscribe()
	wallet.Emit(DisplayURIEvent{URI: "wc:def@2"})
	if diff := cmp.Diff([]string{"walletconnect|wc:abc@2"}, uris); diff != "" {
		t.Fatalf("unexpected uris (-want +got):\n%s", diff)
	}

	wallet.Emit(ErrorEvent{Err: &ProviderError{Code: ProviderCodeDisconnected, Message: "relay lost"}})
	state := m.State()
	if !state.IsConnected || !errors.Is(state.Error, ErrNotReady) {
		t.Fatalf("expected error recorded on live session, got %+v", state)
	}
}

func TestConnectionManager_PersistsExtensionData(t *testing.T) {
	storage := newMemoryStorage()
	m := newTestConnectionManager(storage, newTestClock())
	wallet := newFakeConnector("walletconnect", nil, addrA)
	wallet.extension = map[string]any{"topic": "abc"}
	if _, err := m.Connect(context.Background(), wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}
	record, err := func() (PersistedConnection, error) {
		record, _, err := m.PersistedSession(context.Background())
		return record, err
	}()
	if err != nil {
		t.Fatalf("persisted session: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"topic": "abc"}, record.ExtensionData); diff != "" {
		t.Fatalf("unexpected extension data (-want +got):\n%s", diff)
	}
}

func TestConnectionManager_UnregisterActiveConnector(t *testing.T) {
	ctx := context.Background()
	m := newTestConnectionManager(newMemoryStorage(), newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	if _, err := m.Connect(ctx, wallet, 1); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if !m.UnregisterConnector(ctx, "injected") {
		t.Fatalf("expected connector to be unregistered")
	}
	if m.State().IsConnected {
		t.Fatalf("expected session to end")
	}
	if wallet.ListenerCount() != 0 {
		t.Fatalf("expected event subscription to be removed, got %d", wallet.ListenerCount())
	}
	if m.UnregisterConnector(ctx, "injected") {
		t.Fatalf("expected second unregister to report false")
	}
	if _, err := m.ConnectByID(ctx, "injected", 1); !errors.Is(err, ErrConnectorMissing) {
		t.Fatalf("expected connector missing, got %v", err)
	}
}

func TestConnectionManager_ReRegisterReplacesSubscription(t *testing.T) {
	m := newTestConnectionManager(newMemoryStorage(), newTestClock())
	wallet := newFakeConnector("injected", nil, addrA)
	_ = m.RegisterConnector(wallet)
	_ = m.RegisterConnector(wallet)
	if got := wallet.ListenerCount(); got != 1 {
		t.Fatalf("expected one subscription, got %d", got)
	}
}
