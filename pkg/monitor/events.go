package monitor

import (
	"time"

	"digital.vasic.harness/pkg/display"
)

// EventType represents the type of display event sent to pages.
type EventType string

const (
	EventMeta   EventType = "meta"
	EventCases  EventType = "cases"
	EventBig    EventType = "big"
	EventLog    EventType = "log"
	EventCode   EventType = "code"
	EventBox    EventType = "box"
	EventHide   EventType = "hide"
	EventState  EventType = "state"
	EventStatus EventType = "status"
	EventError  EventType = "error"
)

// CodeImage is a drawn code as the page receives it.
type CodeImage struct {
	Side  int    `json:"side"`
	Level string `json:"level"`
	// Image is a data URL of the PNG rendering.
	Image string `json:"image,omitempty"`
}

// Event is one display update broadcast to every connected page.
type Event struct {
	Type      EventType      `json:"type"`
	Key       string         `json:"key,omitempty"`
	Value     string         `json:"value,omitempty"`
	Rows      []display.Row  `json:"rows,omitempty"`
	Pass      *bool          `json:"pass,omitempty"`
	Line      string         `json:"line,omitempty"`
	Code      *CodeImage     `json:"code,omitempty"`
	Box       *display.Box   `json:"box,omitempty"`
	State     *DashboardData `json:"state,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MessageType is the type of an inbound page message.
type MessageType string

const (
	MessageResize  MessageType = "resize"
	MessageDismiss MessageType = "dismiss"
	MessageRun     MessageType = "run"
)

// Message is sent by a page to the harness.
type Message struct {
	Type   MessageType `json:"type"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
}
