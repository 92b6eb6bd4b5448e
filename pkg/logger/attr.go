package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// PipelineID records the pipeline instance identifier under the key "pipeline_id".
// If id is nil, it returns an empty Attr.
func PipelineID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("pipeline_id", id)
}

// BatchID records a delivery batch identifier under the key "batch_id".
func BatchID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("batch_id", id)
}

// Action records an event action under the key "action".
func Action(name string) slog.Attr {
	return slog.String("action", name)
}

// Space records a tracking space under the key "space".
func Space(name string) slog.Attr {
	return slog.String("space", name)
}

// BatchSize records the number of events in a batch under the key "batch_size".
func BatchSize(n int) slog.Attr {
	return slog.Int("batch_size", n)
}

// BacklogLen records the number of queued events under the key "backlog_len".
func BacklogLen(n int) slog.Attr {
	return slog.Int("backlog_len", n)
}

// Dropped records how many events were evicted under the key "dropped".
func Dropped(n int) slog.Attr {
	return slog.Int("dropped", n)
}

// State records a delivery state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// StatusCode records an HTTP status under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Store records the snapshot store kind under the key "store".
func Store(kind string) slog.Attr {
	return slog.String("store", kind)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
