package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdout carries host responses, so the console fallback is stderr.
var consoleOut io.Writer = os.Stderr

// SlogManager owns the session logger. Records go to the log file and, when
// configured, to Graylog as JSON and to the OTel log provider.
type SlogManager struct {
	logger *slog.Logger

	graylog io.Writer
	context ContextProvider

	logProvider *sdklog.LoggerProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// NewGraylogWriter opens a GELF UDP writer to address (host:port).
func NewGraylogWriter(address string) (*gelf.Writer, error) {
	return gelf.NewWriter(address)
}

// UseGraylog adds a JSON sink writing to w on the next Setup.
func (m *SlogManager) UseGraylog(w io.Writer) {
	m.graylog = w
}

// UseContext appends the attributes returned by p to every record logged
// after the next Setup.
func (m *SlogManager) UseContext(p ContextProvider) {
	m.context = p
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if t, ok := a.Value.Any().(time.Time); ok && a.Key == slog.TimeKey {
				a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
			}
			return a
		},
	}
}

// Setup (re)builds the logger. Text records go to file, or to stderr when
// file is nil. A nil provider disables the OTel sink.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	opts := handlerOptions(parseLevel(level))
	m.logProvider = provider

	if file == nil {
		file = consoleOut
	}
	sinks := []slog.Handler{slog.NewTextHandler(file, opts)}
	if m.graylog != nil {
		sinks = append(sinks, slog.NewJSONHandler(m.graylog, opts))
	}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler("camera-mfd", otelslog.WithLoggerProvider(provider)))
	}

	var h slog.Handler = newFanout(sinks...)
	if m.context != nil {
		h = sessionHandler{next: h, provider: m.context}
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the session logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush pushes buffered OTel records to their exporters.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}

// WriteLog logs data at the named level, tagged with the command or function
// that produced it. Unknown levels log at info.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
