package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type ConnectorRegistry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{connectors: make(map[string]Connector)}
}

func (r *ConnectorRegistry) Register(connector Connector) (Connector, error) {
	if connector == nil {
		return nil, fmt.Errorf("core: connector is nil")
	}
	id := strings.TrimSpace(connector.ID())
	if id == "" {
		return nil, fmt.Errorf("core: connector id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.connectors[id]
	r.connectors[id] = connector
	return previous, nil
}

func (r *ConnectorRegistry) Unregister(connectorID string) (Connector, bool) {
	id := strings.TrimSpace(connectorID)
	r.mu.Lock()
	defer r.mu.Unlock()
	connector, ok := r.connectors[id]
	if ok {
		delete(r.connectors, id)
	}
	return connector, ok
}

func (r *ConnectorRegistry) Get(connectorID string) (Connector, bool) {
	id := strings.TrimSpace(connectorID)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	connector, ok := r.connectors[id]
	r.mu.RUnlock()
	return connector, ok
}

func (r *ConnectorRegistry) List() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	connectors := make([]Connector, 0, len(keys))
	for _, id := range keys {
		connectors = append(connectors, r.connectors[id])
	}
	return connectors
}
