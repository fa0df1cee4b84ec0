package logging

import "github.com/rs/zerolog"

// DispatcherLogger writes dispatcher events through zerolog. An "error" pair
// holding an error value is logged with Err so it lands in zerolog's error
// field.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger for the dispatcher.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	send(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	send(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	send(l.logger.Error(), msg, keysAndValues)
}

func send(e *zerolog.Event, msg string, keysAndValues []any) {
	if e == nil {
		return
	}
	fields := toFields(keysAndValues)
	if err, ok := fields[zerolog.ErrorFieldName].(error); ok {
		delete(fields, zerolog.ErrorFieldName)
		e = e.Err(err)
	}
	e.Fields(fields).Msg(msg)
}

// toFields pairs up keys and values. Non-string keys and a trailing key
// without a value are dropped.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 1; i < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i-1].(string); ok {
			fields[key] = keysAndValues[i]
		}
	}
	return fields
}
