package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Supported console formats and OTLP protocols.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatOTel = "otel"

	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// DefaultServiceName identifies this process in exported records.
const DefaultServiceName = "platformsh-client"

// Config controls Instrument.
type Config struct {
	Level  slog.Level
	Format string
	// OTLPEndpoint enables OTLP export when non-empty.
	OTLPEndpoint string
	OTLPProtocol string
	ServiceName  string
	// Writer receives console output. Defaults to os.Stderr.
	Writer io.Writer
}

// ShutdownFunc flushes and stops exporters.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and returns a function that
// flushes pending records. The returned function is never nil.
func Instrument(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	var (
		console    slog.Handler
		processors []sdklog.Processor
	)

	switch cfg.Format {
	case FormatText, "":
		console = slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	case FormatJSON:
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	case FormatOTel:
		exporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return noop, fmt.Errorf("creating stdout log exporter: %w", err)
		}
		processors = append(processors, sdklog.NewSimpleProcessor(exporter))
	default:
		return noop, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := newOTLPExporter(ctx, cfg.OTLPProtocol, cfg.OTLPEndpoint)
		if err != nil {
			return noop, err
		}
		processors = append(processors, sdklog.NewBatchProcessor(exporter))
	}

	if len(processors) == 0 {
		slog.SetDefault(slog.New(console))
		return noop, nil
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(name))
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, p := range processors {
		opts = append(opts, sdklog.WithProcessor(minsev.NewLogProcessor(p, severity(cfg.Level))))
	}
	provider := sdklog.NewLoggerProvider(opts...)
	global.SetLoggerProvider(provider)

	// Routing SDK errors through slog could loop back into the failing exporter
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		_, _ = fmt.Fprintf(w, "opentelemetry: %v\n", err)
	}))

	var handler slog.Handler = otelslog.NewHandler(name, otelslog.WithLoggerProvider(provider))
	if console != nil {
		handler = fanoutHandler{console, handler}
	}
	slog.SetDefault(slog.New(handler))

	return provider.Shutdown, nil
}

func newOTLPExporter(ctx context.Context, protocol, endpoint string) (sdklog.Exporter, error) {
	switch protocol {
	case ProtocolHTTP, "":
		exporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating otlp http log exporter: %w", err)
		}
		return exporter, nil
	case ProtocolGRPC:
		exporter, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating otlp grpc log exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported otlp protocol: %s", protocol)
	}
}

// severity maps a slog level to the closest OpenTelemetry minimum severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

// Compile-time check that fanoutHandler implements slog.Handler.
var _ slog.Handler = fanoutHandler(nil)

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
