/*
Package chat contains the core relay logic: the hub dispatching every client
event, the per-connection client pumps, and the boards tracking pins, read
receipts, and reactions.

This file defines the wire event catalog: the outbound envelope, the inbound
frame, and the payload structures for every event type.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"quickdrop/internal/app/session"
	"quickdrop/internal/pkg/randx"
)

// EventType identifies an event on the wire.
type EventType string

// Client-to-server event types.
const (
	TypeUpdateProfile EventType = "update_profile"
	TypeTypingStart   EventType = "typing_start"
	TypeTypingStop    EventType = "typing_stop"
	TypeSendMessage   EventType = "send_message"
	TypeSendVoice     EventType = "send_voice"
	TypePinMessage    EventType = "pin_message"
	TypeMessageRead   EventType = "message_read"
	TypeReaction      EventType = "reaction"
)

// Server-to-client event types.
const (
	TypeSessionWelcome     EventType = "session_welcome"
	TypeMembershipSnapshot EventType = "membership_snapshot"
	TypeProfileUpdated     EventType = "profile_updated"
	TypeTyping             EventType = "typing"
	TypeReceiveMessage     EventType = "receive_message"
	TypeReceiveVoice       EventType = "receive_voice"
	TypeMessagePinned      EventType = "message_pinned"
	TypeMessageReadStatus  EventType = "message_read_status"
	TypeReactionUpdate     EventType = "reaction_update"
	TypeSessionEnded       EventType = "session_ended"
	TypeError              EventType = "error"
)

// MessageKind classifies the content of a relayed message.
type MessageKind string

const (
	KindText MessageKind = "text"
	KindFile MessageKind = "file"
)

// Event is the outbound envelope wrapping every server-emitted payload.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an Event of the given type, marshaling the payload and
// stamping a fresh id and the current server time in milliseconds.
func NewEvent(eventType EventType, payload any) (Event, error) {
	var raw json.RawMessage

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		raw = encoded
	}

	return Event{
		ID:        randx.EventID(),
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   raw,
	}, nil
}

// inboundFrame is the shape of every client-to-server message.
type inboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MemberEntry is one row of a membership snapshot: a live session joined with
// its current profile. Snapshots are recomputed fresh on every change.
type MemberEntry struct {
	SessionID   string          `json:"sessionId"`
	ConnectedAt int64           `json:"connectedAt"`
	Profile     session.Profile `json:"profile"`
}

// WelcomePayload is delivered once to a newly connected client.
type WelcomePayload struct {
	SessionID string      `json:"sessionId"`
	Pinned    []PinRecord `json:"pinned"`
}

// MembershipSnapshotPayload carries the full current membership list.
type MembershipSnapshotPayload struct {
	Members []MemberEntry `json:"members"`
	Count   int           `json:"count"`
}

// ProfilePayload is the client-supplied profile update.
type ProfilePayload struct {
	DisplayName string `json:"displayName"`
	StatusText  string `json:"statusText"`
	AvatarRef   string `json:"avatarRef"`
}

// ProfileUpdatedPayload announces a changed profile.
type ProfileUpdatedPayload struct {
	SessionID string          `json:"sessionId"`
	Profile   session.Profile `json:"profile"`
}

// TypingPayload announces a typing state change to everyone except its origin.
type TypingPayload struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}

// FileMeta describes a file message. Only metadata travels through the relay;
// the bytes themselves never reach the server.
type FileMeta struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// SendMessagePayload is an inbound text or file message.
type SendMessagePayload struct {
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	Encrypted bool        `json:"encrypted,omitempty"`
	File      *FileMeta   `json:"file,omitempty"`
}

// ReceiveMessagePayload is the relayed form of a message, with the sender
// identity resolved at broadcast time and a server-assigned timestamp.
// The encrypted flag marks client-side obfuscated content and is relayed
// opaquely; it is not a confidentiality guarantee.
type ReceiveMessagePayload struct {
	SenderID        string      `json:"senderId"`
	DisplayName     string      `json:"displayName"`
	Kind            MessageKind `json:"kind"`
	Content         string      `json:"content"`
	Encrypted       bool        `json:"encrypted,omitempty"`
	File            *FileMeta   `json:"file,omitempty"`
	ServerTimestamp int64       `json:"serverTimestamp"`
}

// SendVoicePayload is an inbound voice recording. Audio arrives base64-encoded
// inside the JSON frame.
type SendVoicePayload struct {
	Audio    []byte  `json:"audio"`
	Duration float64 `json:"duration"`
}

// ReceiveVoicePayload references a stored voice recording instead of carrying
// the raw bytes.
type ReceiveVoicePayload struct {
	Reference       string  `json:"reference"`
	Duration        float64 `json:"duration"`
	SenderID        string  `json:"senderId"`
	DisplayName     string  `json:"displayName"`
	ServerTimestamp int64   `json:"serverTimestamp"`
}

// PinPayload is an inbound pin request.
type PinPayload struct {
	MessageID string `json:"messageId"`
}

// MessagePinnedPayload announces a newly pinned message.
type MessagePinnedPayload struct {
	MessageID   string `json:"messageId"`
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// ReadPayload is an inbound read acknowledgement.
type ReadPayload struct {
	MessageID string `json:"messageId"`
}

// ReadStatusPayload announces that a participant has read a message.
type ReadStatusPayload struct {
	MessageID  string `json:"messageId"`
	ReaderID   string `json:"readerId"`
	ReaderName string `json:"readerName"`
}

// Reaction actions accepted from clients.
const (
	ReactionActionAdd    = "add"
	ReactionActionRemove = "remove"
)

// ReactionPayload is an inbound reaction toggle.
type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Action    string `json:"action"`
}

// ReactionUpdatePayload announces a reaction change to everyone except its origin.
type ReactionUpdatePayload struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Action    string `json:"action"`
	SessionID string `json:"sessionId"`
	Count     int    `json:"count"`
}

// SessionEndedPayload announces a disconnect.
type SessionEndedPayload struct {
	SessionID string `json:"sessionId"`
}

// ErrorPayload reports a non-fatal failure back to the originating session.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
