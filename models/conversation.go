package models

import (
	"strings"
	"time"
)

// ConversationStatus is the lifecycle state of a negotiation thread.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// ParseConversationStatus maps the backend vocabulary (active/archived/closed) onto open|closed.
func ParseConversationStatus(s string) ConversationStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "closed", "archived":
		return ConversationClosed
	default:
		return ConversationOpen
	}
}

// Participant is one side of a conversation, or a message sender.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UnreadCount holds the per-participant unread counters.
type UnreadCount struct {
	Agent  int `json:"agent"`
	Client int `json:"client"`
}

type Conversation struct {
	ID            string             `json:"id"`
	Client        Participant        `json:"client"`
	Agent         Participant        `json:"agent"`
	VehicleID     string             `json:"vehicleId,omitempty"`
	Subject       string             `json:"subject,omitempty"`
	Status        ConversationStatus `json:"status"`
	LastMessage   string             `json:"lastMessage"`
	LastMessageAt time.Time          `json:"lastMessageAt"`
	Unread        UnreadCount        `json:"unreadCount"`
	AINegotiation bool               `json:"isAiNegotiation,omitempty"`
}

// AISubjectPrefix marks the subject of conversations negotiated by the AI agent.
const AISubjectPrefix = "[IA]"

// IsAI reports whether the AI agent negotiates this conversation. Older
// conversations only carry the subject prefix.
func (c Conversation) IsAI() bool {
	return c.AINegotiation || strings.HasPrefix(strings.TrimSpace(c.Subject), AISubjectPrefix)
}

// Counterpart returns the participant that is not me.
func (c Conversation) Counterpart(me string) Participant {
	if c.Client.ID == me {
		return c.Agent
	}
	return c.Client
}

// UnreadFor returns the unread counter relevant to the given user id.
func (c Conversation) UnreadFor(me string) int {
	if c.Client.ID == me {
		return c.Unread.Client
	}
	return c.Unread.Agent
}
