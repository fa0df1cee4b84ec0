package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false, LogWriter: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("camera-mfd"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "camera-mfd"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_ExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "camera-mfd",
		ServiceVersion: "0.0.1",
		SessionID:      "3f1c2a9e-session",
		BatchTimeout:   time.Second,
		LogWriter:      &buf,
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())
	require.NotNil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("camera-mfd"))

	logger := otelslog.NewLogger("camera-mfd", otelslog.WithLoggerProvider(p.LoggerProvider()))
	logger.Info("camera selected", "owner", "GL-01")

	require.NoError(t, p.Flush(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "camera selected")
	assert.Contains(t, out, "3f1c2a9e-session")
	assert.Contains(t, out, "0.0.1")

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestResourceAttrs_OptionalFields(t *testing.T) {
	attrs := resourceAttrs(Config{ServiceName: "camera-mfd"})
	require.Len(t, attrs, 1)
	assert.Equal(t, "camera-mfd", attrs[0].Value.AsString())

	attrs = resourceAttrs(Config{ServiceName: "camera-mfd", ServiceVersion: "1", SessionID: "s"})
	assert.Len(t, attrs, 3)
}

func TestLoggerProvider_EmitsRecords(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, ServiceName: "camera-mfd", BatchTimeout: time.Second, LogWriter: &buf})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityWarn)
	rec.SetBody(otellog.StringValue("viewer reconnecting"))
	rec.AddAttributes(otellog.Int("attempt", 2))
	p.LoggerProvider().Logger("wsview").Emit(context.Background(), rec)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "viewer reconnecting")
	assert.Contains(t, buf.String(), "attempt")
}
