package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	walletcommand "github.com/goliatone/go-wallets/command"
	"github.com/goliatone/go-wallets/core"
	walletquery "github.com/goliatone/go-wallets/query"
)

// ValidateMessageContract checks that msg has a non-empty Type() and passes
// its own Validate() when it has one.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue
// registry so hosts can run wallet commands from background workers.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Subscriptions holds dispatcher subscriptions created together.
type Subscriptions []commanddispatcher.Subscription

// Unsubscribe removes every subscription. It is safe to call twice.
func (s *Subscriptions) Unsubscribe() {
	if s == nil {
		return
	}
	for _, subscription := range *s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	*s = nil
}

// RegisterWalletHandlers registers and subscribes every wallet command and
// query against service. On failure nothing stays subscribed.
func RegisterWalletHandlers(adapter *RegistryAdapter, service core.WalletService) (*Subscriptions, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: wallet service is required")
	}
	subs := &Subscriptions{}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewConnectCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewDisconnectCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewAutoConnectCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewSwitchChainCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewSwitchAccountCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewAddCustomNetworkCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewRemoveCustomNetworkCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewToggleNetworkCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewSetCurrentNetworkCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, walletcommand.NewInitializeNamespaceCommand(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, walletquery.NewConnectionStateQuery(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, walletquery.NewGetNetworkQuery(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, walletquery.NewListNetworksQuery(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, walletquery.NewEnabledNetworksQuery(service))
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, walletquery.NewCurrentNetworkQuery(service))
		},
	}
	for _, step := range steps {
		subscription, err := step()
		if err != nil {
			subs.Unsubscribe()
			return nil, err
		}
		*subs = append(*subs, subscription)
	}
	return subs, nil
}
