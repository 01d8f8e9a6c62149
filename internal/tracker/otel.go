package tracker

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bmad-code-org/bmad-beads/internal/telemetry"
)

const scopeName = "github.com/bmad-code-org/bmad-beads/tracker"

// maxOutputBytes caps the command output recorded on spans.
const maxOutputBytes = 1024

type instruments struct {
	tracer      trace.Tracer
	invocations metric.Int64Counter
	errs        metric.Int64Counter
	dur         metric.Float64Histogram
}

func newInstruments() *instruments {
	m := telemetry.Meter(scopeName)
	invocations, _ := m.Int64Counter("bmad.bd.invocations",
		metric.WithDescription("Total bd subprocess invocations"),
	)
	errs, _ := m.Int64Counter("bmad.bd.errors",
		metric.WithDescription("Total failed or timed out bd invocations"),
	)
	dur, _ := m.Float64Histogram("bmad.bd.duration",
		metric.WithDescription("bd invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &instruments{
		tracer:      telemetry.Tracer(scopeName),
		invocations: invocations,
		errs:        errs,
		dur:         dur,
	}
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (in *instruments) begin(ctx context.Context, args []string) (context.Context, trace.Span, time.Time) {
	attrs := []attribute.KeyValue{attribute.String("bd.command", subcommand(args))}
	ctx, span := in.tracer.Start(ctx, "bd.exec",
		trace.WithAttributes(append(attrs, attribute.String("bd.args", strings.Join(args, " ")))...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	in.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

func (in *instruments) end(ctx context.Context, span trace.Span, start time.Time, args []string, stdout, stderr []byte, err error) {
	attrs := metric.WithAttributes(attribute.String("bd.command", subcommand(args)))
	in.dur.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	addOutputEvents(span, stdout, stderr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.errs.Add(ctx, 1, attrs)
	}
	span.End()
}

// addOutputEvents records non-empty stdout/stderr as span events.
func addOutputEvents(span trace.Span, stdout, stderr []byte) {
	if n := len(stdout); n > 0 {
		span.AddEvent("bd.stdout", trace.WithAttributes(
			attribute.String("output", truncateOutput(stdout)),
			attribute.Int("bytes", n),
		))
	}
	if n := len(stderr); n > 0 {
		span.AddEvent("bd.stderr", trace.WithAttributes(
			attribute.String("output", truncateOutput(stderr)),
			attribute.Int("bytes", n),
		))
	}
}

func truncateOutput(b []byte) string {
	if len(b) <= maxOutputBytes {
		return string(b)
	}
	return string(b[:maxOutputBytes]) + "…"
}
