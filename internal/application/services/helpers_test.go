package services

import (
	"sync"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/email"
)

// recordingSink captures emitted tracking events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []events.TrackingEvent
}

func (s *recordingSink) Emit(event events.TrackingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) byType(eventType string) []events.TrackingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []events.TrackingEvent
	for _, event := range s.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// stubEmail records alert sends.
type stubEmail struct {
	mu     sync.Mutex
	alerts []email.LeadAlert
}

func (s *stubEmail) SendHighValueLeadAlert(toEmail string, alert email.LeadAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *stubEmail) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}
