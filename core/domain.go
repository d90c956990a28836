package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidPersistedSession = errors.New("core: invalid persisted connection")
)

type SessionStatus string

const (
	SessionStatusDisconnected SessionStatus = "disconnected"
	SessionStatusConnecting   SessionStatus = "connecting"
	SessionStatusConnected    SessionStatus = "connected"
)

type ConnectionState struct {
	IsConnected  bool
	IsConnecting bool
	Address      string
	Addresses    []string
	ChainID      int64
	Chains       []int64
	Connector    Connector
	Error        error
}

func (s ConnectionState) Status() SessionStatus {
	switch {
	case s.IsConnected:
		return SessionStatusConnected
	case s.IsConnecting:
		return SessionStatusConnecting
	default:
		return SessionStatusDisconnected
	}
}

func (s ConnectionState) ConnectorID() string {
	if s.Connector == nil {
		return ""
	}
	return s.Connector.ID()
}

func (s ConnectionState) Validate() error {
	if s.IsConnected && s.IsConnecting {
		return fmt.Errorf("core: session cannot be connected and connecting")
	}
	if !s.IsConnected {
		return nil
	}
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("core: connected session requires an address")
	}
	if s.ChainID <= 0 {
		return fmt.Errorf("core: connected session requires a chain id")
	}
	if s.Connector == nil {
		return fmt.Errorf("core: connected session requires a connector")
	}
	return nil
}

func (s ConnectionState) clone() ConnectionState {
	out := s
	if s.Addresses != nil {
		out.Addresses = append([]string{}, s.Addresses...)
	}
	if s.Chains != nil {
		out.Chains = append([]int64{}, s.Chains...)
	}
	return out
}

type PersistedConnection struct {
	ConnectorID   string         `json:"connectorId"`
	Address       string         `json:"address"`
	ChainID       int64          `json:"chainId"`
	Timestamp     int64          `json:"timestamp"`
	ExtensionData map[string]any `json:"extensionData,omitempty"`
}

func (p PersistedConnection) Validate() error {
	if strings.TrimSpace(p.ConnectorID) == "" {
		return fmt.Errorf("%w: connector id is required", ErrInvalidPersistedSession)
	}
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidPersistedSession)
	}
	if p.ChainID <= 0 {
		return fmt.Errorf("%w: chain id is required", ErrInvalidPersistedSession)
	}
	if p.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidPersistedSession)
	}
	return nil
}

func (p PersistedConnection) SavedAt() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

func (p PersistedConnection) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.SavedAt()) > ttl
}

func NormalizeAddress(address string) string {
	trimmed := strings.TrimSpace(address)
	if common.IsHexAddress(trimmed) {
		return common.HexToAddress(trimmed).Hex()
	}
	return trimmed
}

func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return strings.EqualFold(a, b)
}

func containsAddress(addresses []string, address string) bool {
	return slices.ContainsFunc(addresses, func(candidate string) bool {
		return SameAddress(candidate, address)
	})
}
