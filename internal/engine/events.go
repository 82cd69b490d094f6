package engine

import (
	"encoding/json"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

type EventType string

const (
	// EventContextMenu asks the host to open its menu at Screen.
	EventContextMenu EventType = "contextMenu"
	// EventEditLabel asks the host to open the inline label editor on Node.
	EventEditLabel   EventType = "editLabel"
	EventToolChanged EventType = "tool"
	// EventNotice carries a short user-facing message.
	EventNotice EventType = "notice"
	EventSaved  EventType = "saved"
)

// Event is something the host must act on: UI the engine does not draw.
type Event struct {
	Type    EventType    `json:"type"`
	Node    graph.NodeID `json:"node,omitempty"`
	Screen  geom.Point   `json:"screen"`
	World   geom.Point   `json:"world"`
	Tool    gesture.Tool `json:"tool,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (e *Engine) emit(ev Event) {
	e.events = append(e.events, ev)
}

func (e *Engine) notice(msg string) {
	e.emit(Event{Type: EventNotice, Message: msg})
}

// DrainEvents returns and clears the queued events.
func (e *Engine) DrainEvents() []Event {
	out := e.events
	e.events = nil
	return out
}

// DrainEventsJSON is DrainEvents encoded for the JS host.
func (e *Engine) DrainEventsJSON() string {
	evs := e.DrainEvents()
	if evs == nil {
		return "[]"
	}
	data, _ := json.Marshal(evs)
	return string(data)
}
