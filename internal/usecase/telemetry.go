package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/anuncia/anuncia/internal/usecase"

type instruments struct {
	tracer trace.Tracer

	ingested        metric.Int64Counter
	ingestFailed    metric.Int64Counter
	retired         metric.Int64Counter
	cleanupFailures metric.Int64Counter
	passes          metric.Int64Histogram
	outputBytes     metric.Int64Histogram
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	inst := &instruments{tracer: otel.Tracer(instrumentationName)}

	var err error
	if inst.ingested, err = meter.Int64Counter("assets.ingested",
		metric.WithDescription("Assets compressed and recorded")); err != nil {
		otel.Handle(err)
	}
	if inst.ingestFailed, err = meter.Int64Counter("assets.ingest_failed",
		metric.WithDescription("Ingestions that ended in an error")); err != nil {
		otel.Handle(err)
	}
	if inst.retired, err = meter.Int64Counter("assets.retired",
		metric.WithDescription("Assets whose file and record were removed")); err != nil {
		otel.Handle(err)
	}
	if inst.cleanupFailures, err = meter.Int64Counter("assets.cleanup_failures",
		metric.WithDescription("Best-effort file or directory removals that failed")); err != nil {
		otel.Handle(err)
	}
	if inst.passes, err = meter.Int64Histogram("assets.compress.passes",
		metric.WithDescription("Encode passes per compression")); err != nil {
		otel.Handle(err)
	}
	if inst.outputBytes, err = meter.Int64Histogram("assets.compress.output_bytes",
		metric.WithDescription("Size of the accepted compressed output"),
		metric.WithUnit("By")); err != nil {
		otel.Handle(err)
	}
	return inst
}

func (i *instruments) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (i *instruments) cleanupFailed(ctx context.Context, what string) {
	if i.cleanupFailures != nil {
		i.cleanupFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("target", what)))
	}
}

func (i *instruments) recordIngest(ctx context.Context, kind OwnerKind, passes int, size int64) {
	attrs := metric.WithAttributes(attribute.String("owner.kind", string(kind)))
	if i.ingested != nil {
		i.ingested.Add(ctx, 1, attrs)
	}
	if i.passes != nil {
		i.passes.Record(ctx, int64(passes), attrs)
	}
	if i.outputBytes != nil {
		i.outputBytes.Record(ctx, size, attrs)
	}
}

func (i *instruments) recordIngestFailure(ctx context.Context, kind OwnerKind) {
	if i.ingestFailed != nil {
		i.ingestFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("owner.kind", string(kind))))
	}
}

func (i *instruments) recordRetire(ctx context.Context) {
	if i.retired != nil {
		i.retired.Add(ctx, 1)
	}
}
