// Package observability configures process-wide logging.
//
// Instrument installs the default slog logger. Console output is text or JSON;
// the otel format and OTLP export route records through an OpenTelemetry
// LoggerProvider bridged with otelslog, filtered by the same minimum level.
package observability
