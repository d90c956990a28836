package core

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type ConnectorBase struct {
	id        string
	listeners listenerSet[EventHandler]

	mu      sync.RWMutex
	chains  []int64
	options map[string]any
}

func NewConnectorBase(id string, chains []int64, options map[string]any) *ConnectorBase {
	return &ConnectorBase{
		id:      strings.TrimSpace(id),
		chains:  normalizeChainIDs(chains),
		options: copyAnyMap(options),
	}
}

func (b *ConnectorBase) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

func (b *ConnectorBase) Subscribe(handler EventHandler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	return b.listeners.add(handler)
}

func (b *ConnectorBase) Emit(event ConnectorEvent) {
	if b == nil || event == nil {
		return
	}
	for _, handler := range b.listeners.snapshot() {
		handler(event)
	}
}

func (b *ConnectorBase) ListenerCount() int {
	if b == nil {
		return 0
	}
	return b.listeners.count()
}

func (b *ConnectorBase) SupportsChain(chainID int64) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.chains == nil {
		return chainID > 0
	}
	return slices.Contains(b.chains, chainID)
}

func (b *ConnectorBase) SupportedChains() []int64 {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.chains == nil {
		return nil
	}
	return append([]int64{}, b.chains...)
}

func (b *ConnectorBase) SetSupportedChains(chains []int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.chains = normalizeChainIDs(chains)
	b.mu.Unlock()
}

func (b *ConnectorBase) Option(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.options[key]
	return value, ok
}

func SwitchChainWithRecovery(
	ctx context.Context,
	chainID int64,
	switchFn func(context.Context, int64) error,
	addFn func(context.Context, int64) error,
) error {
	if switchFn == nil {
		return ErrNotReady
	}
	err := switchFn(ctx, chainID)
	if err == nil {
		return nil
	}
	err = NormalizeProviderError(err)
	if !IsChainNotRecognized(err) || addFn == nil {
		return err
	}
	if addErr := addFn(ctx, chainID); addErr != nil {
		return NormalizeProviderError(addErr)
	}
	if retryErr := switchFn(ctx, chainID); retryErr != nil {
		return NormalizeProviderError(retryErr)
	}
	return nil
}

// normalizeChainIDs drops non-positive and duplicate ids, keeping order.
// A nil input stays nil so "unrestricted" survives.
func normalizeChainIDs(chains []int64) []int64 {
	if chains == nil {
		return nil
	}
	out := make([]int64, 0, len(chains))
	for _, id := range chains {
		if id <= 0 || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
