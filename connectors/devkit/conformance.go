package devkit

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-wallets/core"
)

// ValidateConnectorConformance drives connector through connect, account
// reads, a chain switch and disconnect, reporting the first contract
// violation. switchTo may be zero to skip the switch.
func ValidateConnectorConformance(ctx context.Context, connector core.Connector, chainID int64, switchTo int64) error {
	if connector == nil {
		return fmt.Errorf("devkit: connector is required")
	}
	id := connector.ID()
	if strings.TrimSpace(id) == "" || strings.TrimSpace(id) != id {
		return fmt.Errorf("devkit: connector id must be non-empty and trimmed, got %q", id)
	}
	if !connector.SupportsChain(chainID) {
		return fmt.Errorf("devkit: connector %s must support chain %d", id, chainID)
	}

	unsubscribe := connector.Subscribe(func(core.ConnectorEvent) {})
	if unsubscribe == nil {
		return fmt.Errorf("devkit: subscribe must return an unsubscribe function")
	}
	defer unsubscribe()

	result, err := connector.Connect(ctx, chainID)
	if err != nil {
		return fmt.Errorf("devkit: connect: %w", err)
	}
	if len(result.Addresses) == 0 && strings.TrimSpace(result.Address) == "" {
		return fmt.Errorf("devkit: connect returned no accounts")
	}
	if result.ChainID != chainID {
		return fmt.Errorf("devkit: connect returned chain %d, want %d", result.ChainID, chainID)
	}

	authorized, err := connector.IsAuthorized(ctx)
	if err != nil {
		return fmt.Errorf("devkit: is authorized: %w", err)
	}
	if !authorized {
		return fmt.Errorf("devkit: connector must be authorized after connect")
	}
	account, err := connector.Account(ctx)
	if err != nil {
		return fmt.Errorf("devkit: account: %w", err)
	}
	if !common.IsHexAddress(account) {
		return fmt.Errorf("devkit: account %q is not a hex address", account)
	}
	accounts, err := connector.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("devkit: accounts: %w", err)
	}
	if len(accounts) == 0 || !core.SameAddress(accounts[0], account) {
		return fmt.Errorf("devkit: accounts must start with the active account")
	}
	current, err := connector.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("devkit: chain id: %w", err)
	}
	if current != chainID {
		return fmt.Errorf("devkit: chain id is %d after connect, want %d", current, chainID)
	}

	if switchTo > 0 {
		if err := connector.SwitchChain(ctx, switchTo); err != nil {
			return fmt.Errorf("devkit: switch chain: %w", err)
		}
		current, err := connector.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("devkit: chain id: %w", err)
		}
		if current != switchTo {
			return fmt.Errorf("devkit: chain id is %d after switch, want %d", current, switchTo)
		}
	}

	if err := connector.Disconnect(ctx); err != nil {
		return fmt.Errorf("devkit: disconnect: %w", err)
	}
	unsubscribe()
	return nil
}

// ValidateStorageConformance checks the Save/Load/Clear contract against
// a key the caller owns.
func ValidateStorageConformance(ctx context.Context, storage core.Storage, key string) error {
	if storage == nil {
		return fmt.Errorf("devkit: storage is required")
	}
	if _, found, err := storage.Load(ctx, key); err != nil {
		return fmt.Errorf("devkit: load missing key: %w", err)
	} else if found {
		return fmt.Errorf("devkit: key %q must start empty", key)
	}
	if err := storage.Clear(ctx, key); err != nil {
		return fmt.Errorf("devkit: clearing a missing key must succeed: %w", err)
	}

	first := []byte(`{"version":1}`)
	if err := storage.Save(ctx, key, first); err != nil {
		return fmt.Errorf("devkit: save: %w", err)
	}
	first[0] = 'x'
	loaded, found, err := storage.Load(ctx, key)
	if err != nil || !found {
		return fmt.Errorf("devkit: load after save: found=%v err=%v", found, err)
	}
	if !bytes.Equal(loaded, []byte(`{"version":1}`)) {
		return fmt.Errorf("devkit: storage must keep its own copy, got %q", loaded)
	}

	second := []byte(`{"version":2}`)
	if err := storage.Save(ctx, key, second); err != nil {
		return fmt.Errorf("devkit: overwrite: %w", err)
	}
	loaded, found, err = storage.Load(ctx, key)
	if err != nil || !found || !bytes.Equal(loaded, second) {
		return fmt.Errorf("devkit: load after overwrite: %q found=%v err=%v", loaded, found, err)
	}

	if err := storage.Clear(ctx, key); err != nil {
		return fmt.Errorf("devkit: clear: %w", err)
	}
	if _, found, err := storage.Load(ctx, key); err != nil || found {
		return fmt.Errorf("devkit: load after clear: found=%v err=%v", found, err)
	}
	return nil
}
