package devkit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-wallets/core"
)

// Script configures a Connector. Errors set here are returned by the
// matching call until changed with Update.
type Script struct {
	Addresses []string
	ChainID   int64
	// WalletChains lists the chains the simulated wallet already knows.
	// Switching to any other chain reports provider code 4902 first. Nil
	// means every chain is known.
	WalletChains []int64
	Authorized   bool
	// DisplayURI is emitted on Connect when set.
	DisplayURI string

	ConnectErr       error
	DisconnectErr    error
	SwitchChainErr   error
	AddChainErr      error
	SwitchAccountErr error
	AuthorizedErr    error
}

// Call records one wallet call made against a Connector.
type Call struct {
	Method  string
	ChainID int64
	Address string
}

// Connector is an in-process wallet for tests and demos.
type Connector struct {
	*core.ConnectorBase

	mu        sync.Mutex
	script    Script
	calls     []Call
	extension map[string]any
}

var (
	_ core.Connector       = (*Connector)(nil)
	_ core.ChainUpdater    = (*Connector)(nil)
	_ core.SessionExtender = (*Connector)(nil)
)

func NewConnector(id string, supportedChains []int64, script Script) *Connector {
	if script.ChainID <= 0 {
		script.ChainID = 1
	}
	script.Addresses = slices.Clone(script.Addresses)
	if script.WalletChains != nil {
		script.WalletChains = slices.Clone(script.WalletChains)
	}
	return &Connector{
		ConnectorBase: core.NewConnectorBase(id, supportedChains, nil),
		script:        script,
	}
}

// Update edits the script under the connector lock.
func (c *Connector) Update(fn func(*Script)) {
	if c == nil || fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.script)
}

func (c *Connector) SetExtensionData(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extension = data
}

func (c *Connector) SessionExtensionData() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extension
}

func (c *Connector) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// CallCount returns how many calls were made to method.
func (c *Connector) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, call := range c.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

func (c *Connector) record(call Call) {
	c.calls = append(c.calls, call)
}

func (c *Connector) Connect(_ context.Context, chainID int64) (core.ConnectResult, error) {
	c.mu.Lock()
	c.record(Call{Method: "connect", ChainID: chainID})
	if c.script.ConnectErr != nil {
		err := c.script.ConnectErr
		c.mu.Unlock()
		return core.ConnectResult{}, err
	}
	if chainID > 0 {
		c.script.ChainID = chainID
		c.learnChainLocked(chainID)
	}
	c.script.Authorized = true
	result := core.ConnectResult{
		Addresses: slices.Clone(c.script.Addresses),
		ChainID:   c.script.ChainID,
	}
	uri := c.script.DisplayURI
	c.mu.Unlock()

	if uri != "" {
		c.Emit(core.DisplayURIEvent{URI: uri})
	}
	return result, nil
}

func (c *Connector) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "disconnect"})
	c.script.Authorized = false
	return c.script.DisconnectErr
}

func (c *Connector) Account(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.script.Addresses) == 0 {
		return "", nil
	}
	return c.script.Addresses[0], nil
}

func (c *Connector) Accounts(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.script.Addresses), nil
}

func (c *Connector) ChainID(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.script.ChainID, nil
}

func (c *Connector) IsAuthorized(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "is_authorized"})
	return c.script.Authorized, c.script.AuthorizedErr
}

func (c *Connector) SwitchAccount(_ context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "switch_account", Address: address})
	if c.script.SwitchAccountErr != nil {
		return c.script.SwitchAccountErr
	}
	if !slices.ContainsFunc(c.script.Addresses, func(existing string) bool {
		return core.SameAddress(existing, address)
	}) {
		return fmt.Errorf("devkit: account %s is not authorized", address)
	}
	return nil
}

// SwitchChain adds chains the wallet does not know before switching, the
// way browser wallets answer an unknown-chain error.
func (c *Connector) SwitchChain(ctx context.Context, chainID int64) error {
	return core.SwitchChainWithRecovery(ctx, chainID, c.switchChain, c.addChain)
}

func (c *Connector) switchChain(_ context.Context, chainID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "switch_chain", ChainID: chainID})
	if c.script.SwitchChainErr != nil {
		return c.script.SwitchChainErr
	}
	if c.script.WalletChains != nil && !slices.Contains(c.script.WalletChains, chainID) {
		return &core.ProviderError{Code: core.ProviderCodeChainNotRecognized, Message: "unrecognized chain"}
	}
	c.script.ChainID = chainID
	return nil
}

func (c *Connector) addChain(_ context.Context, chainID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "add_chain", ChainID: chainID})
	if c.script.AddChainErr != nil {
		return c.script.AddChainErr
	}
	c.learnChainLocked(chainID)
	return nil
}

func (c *Connector) learnChainLocked(chainID int64) {
	if c.script.WalletChains != nil && !slices.Contains(c.script.WalletChains, chainID) {
		c.script.WalletChains = append(c.script.WalletChains, chainID)
	}
}

func (c *Connector) UpdateChains(_ context.Context, chains []int64) error {
	c.mu.Lock()
	c.record(Call{Method: "update_chains"})
	c.mu.Unlock()
	c.SetSupportedChains(chains)
	return nil
}

// SimulateChainChanged reports a chain change made inside the wallet.
func (c *Connector) SimulateChainChanged(chainID int64) {
	c.mu.Lock()
	c.script.ChainID = chainID
	c.learnChainLocked(chainID)
	c.mu.Unlock()
	c.Emit(core.PermissionChangedEvent{ChainID: chainID})
}

// SimulateAccountsChanged reports a new account list made inside the
// wallet. An empty list reads as a disconnect.
func (c *Connector) SimulateAccountsChanged(addresses ...string) {
	c.mu.Lock()
	c.script.Addresses = slices.Clone(addresses)
	c.mu.Unlock()
	if len(addresses) == 0 {
		c.Emit(core.DisconnectedEvent{})
		return
	}
	c.Emit(core.PermissionChangedEvent{Address: addresses[0], Addresses: slices.Clone(addresses)})
}

func (c *Connector) SimulateDisconnect() {
	c.mu.Lock()
	c.script.Authorized = false
	c.mu.Unlock()
	c.Emit(core.DisconnectedEvent{})
}

func (c *Connector) SimulateError(err error) {
	c.Emit(core.ErrorEvent{Err: err})
}

func (c *Connector) SimulateDisplayURI(uri string) {
	c.Emit(core.DisplayURIEvent{URI: strings.TrimSpace(uri)})
}
