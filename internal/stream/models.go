package stream

import "time"

const (
	EventTypeStatus  = "status"
	EventTypeContent = "content"
	EventTypeAck     = "ack"
)

// Event is an ephemeral message pushed to stream subscribers. It is not
// persisted anywhere.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent,omitempty"`
	Task      string    `json:"task,omitempty"`
	Output    string    `json:"output,omitempty"`
	Type      string    `json:"type"`
}

func NewStatusEvent(agent, task, output string) Event {
	return Event{
		Timestamp: time.Now(),
		Agent:     agent,
		Task:      task,
		Output:    output,
		Type:      EventTypeStatus,
	}
}

func NewAckEvent() Event {
	return Event{
		Timestamp: time.Now(),
		Type:      EventTypeAck,
	}
}
