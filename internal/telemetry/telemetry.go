// Package telemetry exports traces and metrics for bd invocations.
//
// Nothing is recorded unless BMAD_OTEL_ENABLED=true. Then:
//
//	BMAD_OTEL_STDOUT=true                  print spans and metrics to stderr
//	OTEL_EXPORTER_OTLP_METRICS_ENDPOINT    push metrics over OTLP/HTTP (host:port)
//	OTEL_EXPORTER_OTLP_ENDPOINT            used when the metrics endpoint is unset
//
// Spans have no remote exporter; they only appear in stdout mode.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	stdoutInterval = 15 * time.Second
	otlpInterval   = 30 * time.Second
)

// Settings is the telemetry configuration read from the environment.
type Settings struct {
	Enabled         bool
	Stdout          bool
	MetricsEndpoint string
}

// SettingsFromEnv reads Settings from BMAD_OTEL_* and the standard OTLP variables.
func SettingsFromEnv() Settings {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return Settings{
		Enabled:         os.Getenv("BMAD_OTEL_ENABLED") == "true",
		Stdout:          os.Getenv("BMAD_OTEL_STDOUT") == "true",
		MetricsEndpoint: endpoint,
	}
}

var shutdownFns []func(context.Context) error

// Init installs global providers for the current process. With telemetry
// disabled they are no-ops.
func Init(ctx context.Context, serviceName, version string) error {
	s := SettingsFromEnv()
	if !s.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if s.Stdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("telemetry: stdout traces: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)

	readers, err := metricReaders(ctx, s)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		meterOpts = append(meterOpts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)

	return nil
}

func metricReaders(ctx context.Context, s Settings) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	if s.Stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("stdout metrics: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(stdoutInterval)))
	}
	if s.MetricsEndpoint != "" {
		exp, err := otlpMetricExporter(ctx, s.MetricsEndpoint)
		if err != nil {
			return nil, fmt.Errorf("otlp metrics: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(otlpInterval)))
	}
	return readers, nil
}

// Tracer returns a tracer for the instrumentation scope name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Meter returns a meter for the instrumentation scope name.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Shutdown flushes pending spans and metrics and forgets the providers.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
