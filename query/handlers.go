package query

import (
	"context"

	"github.com/goliatone/go-wallets/core"
)

type ConnectionReader interface {
	ConnectionState() core.ConnectionState
}

type NetworkReader interface {
	Network(chainID int64) (core.NetworkConfig, error)
	Networks() []core.NetworkConfig
	EnabledNetworks(namespace string) []core.NetworkConfig
	CurrentNetwork(namespace string) (core.NetworkConfig, error)
}

type ConnectionStateQuery struct {
	reader ConnectionReader
}

func NewConnectionStateQuery(reader ConnectionReader) *ConnectionStateQuery {
	return &ConnectionStateQuery{reader: reader}
}

func (q *ConnectionStateQuery) Query(_ context.Context, _ ConnectionStateMessage) (core.ConnectionState, error) {
	if q == nil || q.reader == nil {
		return core.ConnectionState{}, queryDependencyError("query: connection reader is required")
	}
	return q.reader.ConnectionState(), nil
}

type GetNetworkQuery struct {
	reader NetworkReader
}

func NewGetNetworkQuery(reader NetworkReader) *GetNetworkQuery {
	return &GetNetworkQuery{reader: reader}
}

func (q *GetNetworkQuery) Query(_ context.Context, msg GetNetworkMessage) (core.NetworkConfig, error) {
	if q == nil || q.reader == nil {
		return core.NetworkConfig{}, queryDependencyError("query: network reader is required")
	}
	return q.reader.Network(msg.ChainID)
}

type ListNetworksQuery struct {
	reader NetworkReader
}

func NewListNetworksQuery(reader NetworkReader) *ListNetworksQuery {
	return &ListNetworksQuery{reader: reader}
}

func (q *ListNetworksQuery) Query(_ context.Context, _ ListNetworksMessage) ([]core.NetworkConfig, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: network reader is required")
	}
	return q.reader.Networks(), nil
}

type EnabledNetworksQuery struct {
	reader NetworkReader
}

func NewEnabledNetworksQuery(reader NetworkReader) *EnabledNetworksQuery {
	return &EnabledNetworksQuery{reader: reader}
}

func (q *EnabledNetworksQuery) Query(_ context.Context, msg EnabledNetworksMessage) ([]core.NetworkConfig, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: network reader is required")
	}
	return q.reader.EnabledNetworks(msg.Namespace), nil
}

type CurrentNetworkQuery struct {
	reader NetworkReader
}

func NewCurrentNetworkQuery(reader NetworkReader) *CurrentNetworkQuery {
	return &CurrentNetworkQuery{reader: reader}
}

func (q *CurrentNetworkQuery) Query(_ context.Context, msg CurrentNetworkMessage) (core.NetworkConfig, error) {
	if q == nil || q.reader == nil {
		return core.NetworkConfig{}, queryDependencyError("query: network reader is required")
	}
	return q.reader.CurrentNetwork(msg.Namespace)
}
