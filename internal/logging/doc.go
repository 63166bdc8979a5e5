// Package logging provides structured, context-aware logging for agentd.
//
// It wraps zap with helpers that carry session and request correlation
// through context.Context, and correlate log entries with active
// OpenTelemetry spans.
package logging
