package retry

import (
	"time"

	"github.com/go-logr/logr"
)

// EventType tags a step of a retried call.
type EventType string

const (
	EventAttemptStart  EventType = "attempt_start"
	EventAttemptFailed EventType = "attempt_failed"
	EventRetrying      EventType = "retrying"
	EventSuccess       EventType = "success"
	EventExhausted     EventType = "exhausted"
)

// Event is emitted by DoWithEvents for every step of a retried call.
type Event struct {
	Type        EventType
	Attempt     int // 1-indexed
	MaxAttempts int
	Error       error
	// Delay is the wait before the next attempt, set on EventRetrying.
	Delay     time.Duration
	Timestamp time.Time
}

// Log writes e to log. Per-attempt noise goes to V(1); only exhaustion is an error.
func (e Event) Log(log logr.Logger) {
	log = log.WithValues("attempt", e.Attempt, "maxAttempts", e.MaxAttempts)
	switch e.Type {
	case EventAttemptFailed:
		log.V(1).Info("attempt failed", "error", e.Error.Error())
	case EventRetrying:
		log.V(1).Info("retrying", "delay", e.Delay)
	case EventSuccess:
		if e.Attempt > 1 {
			log.V(1).Info("succeeded after retry")
		}
	case EventExhausted:
		log.Error(e.Error, "retries exhausted")
	}
}

// LogEvents returns a channel whose events are written to log, and a stop
// function that closes it and waits until every buffered event is logged.
func LogEvents(log logr.Logger) (chan<- Event, func()) {
	events := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			e.Log(log)
		}
	}()
	return events, func() {
		close(events)
		<-done
	}
}

// emit stamps event and sends it without blocking. A full channel drops it.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}
