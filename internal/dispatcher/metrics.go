package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// InstrumentationName is the meter name the dispatcher records under.
const InstrumentationName = "github.com/cameramfd/extension/internal/dispatcher"

type metrics struct {
	handled  metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(m metric.Meter) (*metrics, error) {
	if m == nil {
		m = noop.Meter{}
	}

	var (
		out metrics
		err error
	)
	out.handled, err = m.Int64Counter("dispatcher.commands.handled",
		metric.WithDescription("Host commands dispatched to a handler"))
	if err != nil {
		return nil, fmt.Errorf("creating handled counter: %w", err)
	}
	out.failed, err = m.Int64Counter("dispatcher.commands.failed",
		metric.WithDescription("Host commands whose handler returned an error"))
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	out.duration, err = m.Float64Histogram("dispatcher.commands.duration",
		metric.WithDescription("Time spent in command handlers"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &out, nil
}

func (m *metrics) record(command string, took time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("command", command))
	m.handled.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)
	if err != nil {
		m.failed.Add(ctx, 1, attrs)
	}
}
