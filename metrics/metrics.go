// Package metrics records SDK events and gateway latencies.
package metrics

import "time"

// Event names passed to Recorder.IncCounter.
const (
	EventRequest        = "request"
	EventRequestFailed  = "request_failed"
	EventSubmit         = "submit"
	EventSubmitFailed   = "submit_failed"
	EventNonceRefresh   = "nonce_refresh"
	EventNonceFailed    = "nonce_refresh_failed"
	EventPollTick       = "poll_tick"
	EventPollTickFailed = "poll_tick_failed"
	EventPollTimeout    = "poll_timeout"
	EventFinalized      = "finalized"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
