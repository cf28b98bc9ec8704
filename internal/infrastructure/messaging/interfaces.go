// Package messaging defines interfaces for real-time event delivery.
package messaging

import "github.com/helderdigital/engage-go/internal/domain/events"

// EventSink receives tracking events from both engines. Emit is best-effort
// and non-blocking: a slow or absent consumer must never fail or delay the
// engine operation that produced the event.
type EventSink interface {
	Emit(event events.TrackingEvent)
}

// FanoutSink delivers each event to every registered sink.
type FanoutSink struct {
	sinks []EventSink
}

// NewFanoutSink creates a sink that fans out to the given sinks.
func NewFanoutSink(sinks ...EventSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// Emit forwards the event to all sinks.
func (f *FanoutSink) Emit(event events.TrackingEvent) {
	for _, sink := range f.sinks {
		sink.Emit(event)
	}
}

// NullSink discards all events.
type NullSink struct{}

// Emit discards the event.
func (NullSink) Emit(events.TrackingEvent) {}
