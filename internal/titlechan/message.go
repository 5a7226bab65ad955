// Package titlechan implements the probe-to-host signaling channel. Page
// script has no messaging API back to the host process, so messages ride the
// document title: the sender overwrites the title with a magic-prefixed JSON
// frame and restores the original shortly after. The channel is
// one-directional and at-most-once; the host ignores titles without the
// prefix, and a frame the host never samples is simply lost.
package titlechan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MagicPrefix frames every channel message. Titles without it are ordinary
// page titles and never reach the dispatcher.
const MagicPrefix = "__AXION_AUTOFILL__:"

// MessageType discriminates the envelope payload.
type MessageType string

// Message types carried over the channel.
const (
	TypeFormDetected         MessageType = "form_detected"
	TypeRequestAutofill      MessageType = "request_autofill"
	TypeCredentialsSubmitted MessageType = "credentials_submitted"
)

// Message is the wire envelope: {"type": ..., "data": {...}}.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FormDetected is the payload of a form_detected message.
type FormDetected struct {
	URL         string `json:"url"`
	HasUsername bool   `json:"hasUsername"`
	HasPassword bool   `json:"hasPassword"`
}

// AutofillRequest is the payload of a request_autofill message.
type AutofillRequest struct {
	URL string `json:"url"`
}

// SubmittedCredentials is the payload of a credentials_submitted message.
type SubmittedCredentials struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Encode frames a message for the title channel.
func Encode(typ MessageType, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	envelope, err := json.Marshal(Message{Type: typ, Data: data})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return MagicPrefix + string(envelope), nil
}

// Decode extracts a channel message from an observed title. It returns
// ok=false for ordinary titles and for frames that fail to parse.
func Decode(title string) (*Message, bool) {
	raw, found := strings.CutPrefix(title, MagicPrefix)
	if !found {
		return nil, false
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, false
	}
	return &msg, true
}

// DecodePayload unmarshals the envelope data into dst.
func (m *Message) DecodePayload(dst any) error {
	if err := json.Unmarshal(m.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}
