package goAccount

import (
	"io"

	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/logging"
)

// AuditEvent is one security-relevant record produced by the Engine.
type AuditEvent = audit.Event

// AuditSink receives events from the dispatcher goroutine. Implementations
// must be safe for use by that goroutine while the caller reads elsewhere.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes newline-delimited JSON.
type JSONWriterSink = audit.JSONWriterSink

// LogSink writes events through a Logger.
type LogSink = audit.LogSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func NewLogSink(log logging.Logger) *LogSink {
	return audit.NewLogSink(log)
}
