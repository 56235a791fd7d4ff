package game

import "github.com/acapella/riskhunt/internal/riskhunt"

type EventType string

const (
	EventStarted       EventType = "started"
	EventClick         EventType = "click"
	EventTick          EventType = "tick"
	EventImageAdvanced EventType = "image_advanced"
	EventCompleted     EventType = "completed"
)

// Event is published on every session state change.
type Event struct {
	Type                 EventType              `json:"type"`
	SessionID            string                 `json:"sessionId"`
	Status               riskhunt.SessionStatus `json:"status"`
	EndReason            riskhunt.EndReason     `json:"endReason,omitempty"`
	Score                int                    `json:"score"`
	ClicksUsed           int                    `json:"clicksUsed"`
	ClicksRemaining      int                    `json:"clicksRemaining"`
	RisksFound           int                    `json:"risksFound"`
	TimeRemainingSeconds int                    `json:"timeRemainingSeconds"`
	CurrentImageID       string                 `json:"currentImageId,omitempty"`
	Hit                  *bool                  `json:"hit,omitempty"`
	ZoneID               string                 `json:"zoneId,omitempty"`
}

// Notifier receives session events. Publish must not block.
type Notifier interface {
	Publish(sessionID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, Event) {}

func newEvent(typ EventType, s *Session) Event {
	return Event{
		Type:                 typ,
		SessionID:            s.ID,
		Status:               s.Status,
		EndReason:            s.EndReason,
		Score:                s.Score,
		ClicksUsed:           s.ClicksUsed,
		ClicksRemaining:      s.ClicksRemaining(),
		RisksFound:           len(s.FoundRisks),
		TimeRemainingSeconds: s.TimeRemainingSeconds,
		CurrentImageID:       s.CurrentImageID(),
	}
}
