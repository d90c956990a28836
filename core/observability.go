package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	elapsed := time.Since(startedAt).Milliseconds()

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["duration_ms"] = elapsed
	textCode := ""
	if err != nil {
		contextFields["error"] = err.Error()
		if mapped := walletErrorMapper(err); mapped != nil {
			textCode = mapped.TextCode
			contextFields["text_code"] = textCode
		}
	}
	status := operationStatus(err, textCode)
	contextFields["status"] = status

	tags := operationTags(operation, status, contextFields)
	if textCode != "" {
		tags["text_code"] = textCode
	}
	s.recordCounter(ctx, operationMetric(operation, "total"), 1, tags)
	s.recordHistogram(ctx, operationMetric(operation, "duration_ms"), float64(elapsed), tags)

	switch {
	case err == nil:
		s.logInfo(ctx, operation+" succeeded", contextFields)
	case status == "rejected":
		s.logWithLevel(ctx, "warn", operation+" rejected by wallet", contextFields)
	default:
		s.logError(ctx, operation+" failed", contextFields)
	}
}

func operationStatus(err error, textCode string) string {
	switch {
	case err == nil:
		return "success"
	case textCode == WalletErrorUserRejected || IsUserRejected(err):
		return "rejected"
	default:
		return "failure"
	}
}

func operationTags(operation string, status string, fields map[string]any) map[string]string {
	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if id, ok := fields["connector_id"].(string); ok && strings.TrimSpace(id) != "" {
		tags["connector_id"] = strings.TrimSpace(id)
	}
	if chainID, ok := fields["chain_id"].(int64); ok && chainID > 0 {
		tags["chain_id"] = formatChainID(chainID)
	}
	if namespace, ok := fields["namespace"].(string); ok && strings.TrimSpace(namespace) != "" {
		tags["namespace"] = strings.TrimSpace(namespace)
	}
	return tags
}

func (s *Service) watchSession(ctx context.Context) {
	tracker := &sessionTracker{record: func(name string, tags map[string]string) {
		s.recordCounter(ctx, name, 1, tags)
	}}
	s.unsubscribe = append(s.unsubscribe,
		s.connections.Subscribe(tracker.observe),
		s.networks.Subscribe(func(event NetworkEvent) {
			s.recordCounter(ctx, networkEventMetric, 1, networkEventTags(event))
		}),
	)
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "info", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "error", message, fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
