// Package audit relays account lifecycle events to a sink without blocking
// the request path.
//
// # Components
//
//   - [Event]: one audit record (type, account id, client IP, outcome code).
//   - [Sink]: event consumer. Implementations: [ChannelSink],
//     [JSONWriterSink], [LogSink] and [NoOpSink].
//   - [Dispatcher]: ordered async relay; drops or waits when full and
//     survives a panicking sink.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the engine does that.
//   - Carry passwords, verification codes, reset tokens or digests.
package audit
