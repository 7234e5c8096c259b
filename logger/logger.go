// Package logger defines the structured logging surface used by the SDK.
package logger

// Logger receives structured events. Fields are flattened into the
// underlying backend's key/value pairs.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// NoopLogger discards every event. It is the default for new accounts.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

// With returns a Logger that adds fields to every event. Event fields win
// over fields of the same name.
func With(l Logger, fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.(*fieldLogger); ok {
		return &fieldLogger{next: fl.next, fields: merge(fl.fields, fields)}
	}
	return &fieldLogger{next: l, fields: merge(nil, fields)}
}

type fieldLogger struct {
	next   Logger
	fields map[string]any
}

func (f *fieldLogger) Debug(msg string, fields map[string]any) {
	f.next.Debug(msg, merge(f.fields, fields))
}

func (f *fieldLogger) Info(msg string, fields map[string]any) {
	f.next.Info(msg, merge(f.fields, fields))
}

func (f *fieldLogger) Warn(msg string, fields map[string]any) {
	f.next.Warn(msg, merge(f.fields, fields))
}

func (f *fieldLogger) Error(msg string, fields map[string]any) {
	f.next.Error(msg, merge(f.fields, fields))
}

func merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
