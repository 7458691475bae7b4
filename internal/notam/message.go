// Package notam provides the NOTAM message type and text normalisation.
package notam

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FlexString handles JSON fields that can be either string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil // Silently ignore unusable IDs
}

// Message is one NOTAM text block as received from a shell.
type Message struct {
	ID     FlexString `json:"id,omitempty"`
	Source string     `json:"source,omitempty"`
	Raw    string     `json:"raw,omitempty"`
	Text   string     `json:"text"`
}

// Wrapper is the envelope used on the message bus: {"message": {...}}.
type Wrapper struct {
	Message *Message `json:"message"`
}

// NewMessage builds a message from raw text, normalising it for matching.
func NewMessage(source, raw string) *Message {
	return &Message{
		Source: source,
		Raw:    raw,
		Text:   Normalise(raw),
	}
}

// Decode turns a payload into a message. It accepts a bus wrapper, a flat
// JSON message, or plain NOTAM text, in that order.
func Decode(source string, b []byte) *Message {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "{") {
		// 1) Bus wrapper.
		var w Wrapper
		if err := json.Unmarshal(b, &w); err == nil && w.Message != nil && w.Message.Text != "" {
			return w.Message.normalised(source)
		}

		// 2) Flat message (only accept if it actually contains text).
		var m Message
		if err := json.Unmarshal(b, &m); err == nil && strings.TrimSpace(m.Text) != "" {
			return m.normalised(source)
		}
	}

	// 3) Plain text.
	if !utf8.Valid(b) {
		return NewMessage(source, strings.ToValidUTF8(string(b), " "))
	}
	return NewMessage(source, string(b))
}

func (m *Message) normalised(source string) *Message {
	out := *m
	if out.Source == "" {
		out.Source = source
	}
	out.Raw = m.Text
	out.Text = Normalise(m.Text)
	return &out
}

// Label returns a short identifier for logs: the ID if set, otherwise the
// source and text length.
func (m *Message) Label() string {
	if m.ID != "" {
		return string(m.ID)
	}
	return m.Source + ":" + strconv.Itoa(len(m.Text))
}
