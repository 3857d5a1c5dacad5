package otel

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

const instrumentationName = "github.com/zombor/receipt-items"

// Setup installs OTLP trace, metric and log exporters as the global providers
// and routes slog through the log exporter.
// Exporters are configured through the standard OTEL_EXPORTER_OTLP_* variables.
// The returned function flushes and stops every provider.
func Setup(ctx context.Context, service, version string) (func(context.Context) error, error) {
	resource := sdkresource.NewSchemaless(
		attribute.String("service.name", service),
		attribute.String("service.version", version),
	)

	tracer, err := setupTracer(ctx, resource)
	if err != nil {
		return nil, err
	}

	meter, err := setupMeter(ctx, resource)
	if err != nil {
		tracer.Shutdown(ctx)
		return nil, err
	}

	logger, err := setupLogger(ctx, resource)
	if err != nil {
		tracer.Shutdown(ctx)
		meter.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tracer.Shutdown(ctx), meter.Shutdown(ctx), logger.Shutdown(ctx))
	}, nil
}

func useGRPC(signal string) bool {
	return strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")) == "grpc" ||
		strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_"+signal+"_PROTOCOL")) == "grpc"
}

func setupTracer(ctx context.Context, resource *sdkresource.Resource) (*sdktrace.TracerProvider, error) {
	var err error
	var exporter sdktrace.SpanExporter

	if useGRPC("TRACES") {
		exporter, err = otlptracegrpc.New(ctx)
	} else {
		exporter, err = otlptracehttp.New(ctx)
	}

	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(resource),
	)

	otel.SetTracerProvider(provider)

	return provider, nil
}

func setupMeter(ctx context.Context, resource *sdkresource.Resource) (*sdkmetric.MeterProvider, error) {
	var err error
	var exporter sdkmetric.Exporter

	if useGRPC("METRICS") {
		exporter, err = otlpmetricgrpc.New(ctx)
	} else {
		exporter, err = otlpmetrichttp.New(ctx)
	}

	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(resource),
	)

	otel.SetMeterProvider(provider)

	return provider, nil
}

func setupLogger(ctx context.Context, resource *sdkresource.Resource) (*sdklog.LoggerProvider, error) {
	var err error
	var exporter sdklog.Exporter

	if useGRPC("LOGS") {
		exporter, err = otlploggrpc.New(ctx)
	} else {
		exporter, err = otlploghttp.New(ctx)
	}

	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(resource),
	)

	global.SetLoggerProvider(provider)

	slog.SetDefault(otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)))

	return provider, nil
}
