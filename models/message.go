package models

import (
	"strings"
	"time"
)

// MessageOrigin is asserted by the server for every message.
type MessageOrigin string

const (
	OriginHuman  MessageOrigin = "human"
	OriginAI     MessageOrigin = "ai"
	OriginSystem MessageOrigin = "system"
)

// Message is immutable once created; the client only ever appends.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Sender         Participant   `json:"sender"`
	Origin         MessageOrigin `json:"origin,omitempty"`
	Content        string        `json:"content"`
	FileURL        string        `json:"fileUrl,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Read           bool          `json:"read"`
}

// FromAI reports whether the message was produced by the AI agent.
// botEmail is a legacy fallback used only when the server sent no origin.
func (m Message) FromAI(botEmail string) bool {
	if m.Origin != "" {
		return m.Origin == OriginAI
	}
	return botEmail != "" && strings.EqualFold(m.Sender.Email, botEmail)
}

// SentBy reports whether userID authored the message.
func (m Message) SentBy(userID string) bool {
	return userID != "" && m.Sender.ID == userID
}
