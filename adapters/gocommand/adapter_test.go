package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	walletcommand "github.com/goliatone/go-wallets/command"
	"github.com/goliatone/go-wallets/connectors/devkit"
	"github.com/goliatone/go-wallets/core"
	walletquery "github.com/goliatone/go-wallets/query"
	"github.com/goliatone/go-wallets/store/memory"
)

type okMessage struct{}

func (okMessage) Type() string { return "wallets.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "wallets.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "wallets.test.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "wallets.test.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("wallets.test.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestRegisterWalletHandlers_DispatchesToService(t *testing.T) {
	ctx := context.Background()
	svc, err := core.NewService(core.DefaultConfig(),
		core.WithStorage(memory.New()),
		core.WithConnectors(devkit.NewConnector("injected", nil, devkit.Script{
			Addresses: []string{"0x1111111111111111111111111111111111111111"},
		})),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	if _, err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterWalletHandlers(adapter, svc)
	if err != nil {
		t.Fatalf("register wallet handlers: %v", err)
	}
	defer subs.Unsubscribe()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	collector := command.NewResult[core.ConnectionState]()
	if err := Dispatch(command.ContextWithResult(ctx, collector), walletcommand.ConnectMessage{ConnectorID: "injected", ChainID: 10}); err != nil {
		t.Fatalf("dispatch connect: %v", err)
	}
	if state, ok := collector.Load(); !ok || state.ChainID != 10 {
		t.Fatalf("expected connect result on chain 10, got %+v %v", state, ok)
	}

	state, err := Query[walletquery.ConnectionStateMessage, core.ConnectionState](ctx, walletquery.ConnectionStateMessage{})
	if err != nil || !state.IsConnected {
		t.Fatalf("expected connected state through query, got %+v %v", state, err)
	}
	current, err := Query[walletquery.CurrentNetworkMessage, core.NetworkConfig](ctx, walletquery.CurrentNetworkMessage{})
	if err != nil || current.ChainID != 10 {
		t.Fatalf("expected current network 10, got %+v %v", current, err)
	}

	if err := Dispatch(ctx, walletcommand.DisconnectMessage{}); err != nil {
		t.Fatalf("dispatch disconnect: %v", err)
	}
	if svc.ConnectionState().IsConnected {
		t.Fatalf("expected disconnect through dispatcher")
	}
}

func TestRegisterWalletHandlers_RequiresService(t *testing.T) {
	if _, err := RegisterWalletHandlers(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected wallet service error")
	}
}
