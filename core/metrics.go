package core

import (
	"context"
	"strconv"
	"sync"
)

const (
	metricPrefix            = "wallets."
	sessionTransitionMetric = metricPrefix + "session.transitions"
	networkEventMetric      = metricPrefix + "network.events"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func operationMetric(operation string, suffix string) string {
	return metricPrefix + operation + "." + suffix
}

// sessionTracker counts session status changes. Repeated notifications
// with the same status are not transitions.
type sessionTracker struct {
	mu     sync.Mutex
	last   SessionStatus
	primed bool
	record func(name string, tags map[string]string)
}

func (t *sessionTracker) observe(state ConnectionState) {
	status := state.Status()
	t.mu.Lock()
	if !t.primed {
		t.primed = true
		t.last = status
		t.mu.Unlock()
		return
	}
	if status == t.last {
		t.mu.Unlock()
		return
	}
	from := t.last
	t.last = status
	t.mu.Unlock()

	tags := sessionTags(state)
	tags["from"] = string(from)
	if state.Error != nil {
		if mapped := walletErrorMapper(state.Error); mapped != nil {
			tags["text_code"] = mapped.TextCode
		}
	}
	t.record(sessionTransitionMetric, tags)
}

func sessionTags(state ConnectionState) map[string]string {
	tags := map[string]string{"session_status": string(state.Status())}
	if id := state.ConnectorID(); id != "" {
		tags["connector_id"] = id
	}
	if state.ChainID > 0 {
		tags["chain_id"] = formatChainID(state.ChainID)
	}
	return tags
}

func networkEventTags(event NetworkEvent) map[string]string {
	tags := map[string]string{"event": NetworkEventName(event)}
	switch e := event.(type) {
	case NetworkAddedEvent:
		tags["chain_id"] = formatChainID(e.Network.ChainID)
		tags["custom"] = strconv.FormatBool(e.Network.IsCustom)
	case NetworkUpdatedEvent:
		tags["chain_id"] = formatChainID(e.Network.ChainID)
		tags["custom"] = strconv.FormatBool(e.Network.IsCustom)
	case NetworkRemovedEvent:
		tags["chain_id"] = formatChainID(e.ChainID)
	case NetworkToggledEvent:
		tags["chain_id"] = formatChainID(e.ChainID)
		tags["namespace"] = e.Namespace
		tags["enabled"] = strconv.FormatBool(e.Enabled)
	case CurrentNetworkChangedEvent:
		tags["chain_id"] = formatChainID(e.ChainID)
		tags["namespace"] = e.Namespace
	}
	return tags
}

func formatChainID(chainID int64) string {
	return strconv.FormatInt(chainID, 10)
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
