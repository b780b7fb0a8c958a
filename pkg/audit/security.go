// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventInjectionFlag is logged when libinjection matches a question.
	// The question is still answered.
	EventInjectionFlag SecurityEventType = "sql_injection_flag"
	// EventWriteRejected is logged when a statement that is not read-only
	// reaches the executor.
	EventWriteRejected SecurityEventType = "write_rejected"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of a flagged question.
type InjectionDetails struct {
	Question    string `json:"question"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// WriteRejectedDetails contains specifics of a rejected statement.
type WriteRejectedDetails struct {
	Datasource string `json:"datasource,omitempty"`
	SQL        string `json:"sql"`
	Reason     string `json:"reason"`
}

// SecurityAuditor logs security events for SIEM consumption.
// A nil *SecurityAuditor discards every event.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionFlag records a question that matched an injection pattern.
// Logged at WARN: plain questions with apostrophes trip the detector too.
func (a *SecurityAuditor) LogInjectionFlag(ctx context.Context, question, fingerprint string) {
	if a == nil {
		return
	}
	details := InjectionDetails{
		Question:    logging.SanitizePrompt(question),
		Fingerprint: fingerprint,
	}
	event := a.newEvent(ctx, EventInjectionFlag, "warning", details)

	a.logger.Warn("Question matches a SQL injection pattern",
		zap.String("event_json", marshalEvent(event)),
		zap.String("request_id", event.RequestID),
		zap.String("fingerprint", fingerprint),
		zap.String("severity", event.Severity),
	)
}

// LogWriteRejected records a statement refused by the read-only check.
// Logged at ERROR with "critical" severity for immediate alerting.
//
// Example usage:
//
//	if err := sqlutil.RequireReadOnly(query); err != nil {
//	    auditor.LogWriteRejected(ctx, "warehouse", query, err)
//	}
func (a *SecurityAuditor) LogWriteRejected(ctx context.Context, datasource, sql string, reason error) {
	if a == nil {
		return
	}
	details := WriteRejectedDetails{
		Datasource: datasource,
		SQL:        logging.SanitizeQuery(sql),
		Reason:     logging.SanitizeError(reason),
	}
	event := a.newEvent(ctx, EventWriteRejected, "critical", details)

	a.logger.Error("Non-read-only statement rejected",
		zap.String("event_json", marshalEvent(event)),
		zap.String("request_id", event.RequestID),
		zap.String("datasource", datasource),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, severity string, details any) SecurityEvent {
	requestID, _ := llm.RequestIDFromContext(ctx)
	return SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		RequestID: requestID,
		Details:   details,
		Severity:  severity,
	}
}

// marshalEvent serializes an event for SIEM ingestion. Marshaling these
// known types cannot fail.
func marshalEvent(event SecurityEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
