package receipt

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/zombor/receipt-items/internal/receipt"

type metrics struct {
	receipts metric.Int64Counter
	items    metric.Int64Counter
	rows     metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	return &metrics{
		receipts: counter(meter, "receipts.processed", "Receipts processed, by outcome"),
		items:    counter(meter, "receipts.items", "Line items written"),
		rows:     counter(meter, "receipts.rows", "Table rows dropped or corrected, by outcome"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		slog.Warn("Failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (m *metrics) processed(ctx context.Context, job *Job) {
	m.receipts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(job.Status))))
	if job.Status != JobStatusProcessed {
		return
	}

	m.items.Add(ctx, int64(job.ItemCount), metric.WithAttributes(attribute.String("store", job.Store)))
	if job.Stats == nil {
		return
	}
	for outcome, n := range map[string]int{
		"ignored":    job.Stats.Ignored,
		"unparsable": job.Stats.Unparsable,
		"corrected":  job.Stats.Corrected,
		"discarded":  job.Stats.Discarded,
	} {
		if n > 0 {
			m.rows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}
}
