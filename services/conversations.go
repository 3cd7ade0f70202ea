package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/models"
)

// Conversations is the REST side of the negotiation screen.
type Conversations struct {
	api *api.Client
}

func NewConversations(c *api.Client) *Conversations {
	return &Conversations{api: c}
}

func (s *Conversations) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var body json.RawMessage
	if err := s.api.Get(ctx, "/conversations", &body); err != nil {
		return nil, err
	}
	ws, err := api.Collection[wireConversation](body, "conversations")
	if err != nil {
		return nil, err
	}
	return normalizeAll(ws, normalizeConversation), nil
}

// StartConversation creates the conversation with a client, or returns the open one.
func (s *Conversations) StartConversation(ctx context.Context, clientID, vehicleID string) (models.Conversation, error) {
	if err := required([2]string{"client", clientID}); err != nil {
		return models.Conversation{}, err
	}
	req := struct {
		ClientID  string `json:"clientId"`
		VehicleID string `json:"vehicleId,omitempty"`
	}{clientID, vehicleID}
	var body json.RawMessage
	if err := s.api.Post(ctx, "/conversations", req, &body); err != nil {
		return models.Conversation{}, err
	}
	w, err := api.Item[wireConversation](body, "conversation")
	if err != nil {
		return models.Conversation{}, err
	}
	conv := normalizeConversation(w)
	if conv.ID == "" {
		return models.Conversation{}, fmt.Errorf("start conversation: response carries no id")
	}
	return conv, nil
}

// AINegotiation asks for a conversation handled by the AI agent about one vehicle.
type AINegotiation struct {
	UserID      string
	VehicleID   string
	VehicleName string
	AgencyID    string
}

// StartAINegotiation creates a conversation flagged for the AI agent. The
// agency stands in as the second participant.
func (s *Conversations) StartAINegotiation(ctx context.Context, n AINegotiation) (models.Conversation, error) {
	if err := required([2]string{"vehicle", n.VehicleID}, [2]string{"agency", n.AgencyID}); err != nil {
		return models.Conversation{}, err
	}
	name := n.VehicleName
	if name == "" {
		name = n.VehicleID
	}
	req := struct {
		ParticipantIDs  []string `json:"participantIds"`
		VehicleID       string   `json:"vehicleId"`
		Subject         string   `json:"subject"`
		IsAINegotiation bool     `json:"isAiNegotiation"`
	}{
		ParticipantIDs:  []string{n.UserID, n.AgencyID},
		VehicleID:       n.VehicleID,
		Subject:         models.AISubjectPrefix + " Négociation pour " + name,
		IsAINegotiation: true,
	}
	var body json.RawMessage
	if err := s.api.Post(ctx, "/conversations", req, &body); err != nil {
		return models.Conversation{}, err
	}
	w, err := api.Item[wireConversation](body, "conversation")
	if err != nil {
		return models.Conversation{}, err
	}
	conv := normalizeConversation(w)
	if conv.ID == "" {
		return models.Conversation{}, fmt.Errorf("start AI negotiation: response carries no id")
	}
	conv.AINegotiation = true
	if conv.VehicleID == "" {
		conv.VehicleID = n.VehicleID
	}
	if conv.Subject == "" {
		conv.Subject = req.Subject
	}
	return conv, nil
}

func (s *Conversations) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var body json.RawMessage
	if err := s.api.Get(ctx, "/conversations/"+url.PathEscape(conversationID)+"/messages", &body); err != nil {
		return nil, err
	}
	ws, err := api.Collection[wireMessage](body, "messages")
	if err != nil {
		return nil, err
	}
	msgs := normalizeAll(ws, normalizeMessage)
	for i := range msgs {
		if msgs[i].ConversationID == "" {
			msgs[i].ConversationID = conversationID
		}
	}
	return msgs, nil
}

// SendMessage posts a message. The response holds the persisted message and,
// for AI-handled conversations, the AI reply after it, in that order.
func (s *Conversations) SendMessage(ctx context.Context, conversationID, content, fileURL string) ([]models.Message, error) {
	req := struct {
		Content string `json:"content"`
		FileURL string `json:"fileUrl,omitempty"`
	}{content, fileURL}
	var body json.RawMessage
	if err := s.api.Post(ctx, "/conversations/"+url.PathEscape(conversationID)+"/messages", req, &body); err != nil {
		return nil, err
	}

	var out []models.Message
	if ws, err := api.Collection[wireMessage](body, "messages"); err == nil && len(ws) > 0 {
		out = normalizeAll(ws, normalizeMessage)
	} else {
		for _, key := range []string{"message", "aiMessage"} {
			raw, ok := api.Lookup(body, key)
			if !ok {
				continue
			}
			m, err := DecodeMessage(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	for i := range out {
		if out[i].ConversationID == "" {
			out[i].ConversationID = conversationID
		}
	}
	return out, nil
}

func (s *Conversations) DeleteConversation(ctx context.Context, conversationID string) error {
	return s.api.Delete(ctx, "/conversations/"+url.PathEscape(conversationID), nil)
}

// Upload stores an attachment and returns its reference.
func (s *Conversations) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	var resp json.RawMessage
	if err := s.api.Upload(ctx, "/upload", "file", filename, body, &resp); err != nil {
		return "", err
	}
	raw, ok := api.Lookup(resp, "url")
	if !ok {
		return "", fmt.Errorf("upload %s: response carries no url", filename)
	}
	var u string
	if err := json.Unmarshal(raw, &u); err != nil || u == "" {
		return "", fmt.Errorf("upload %s: invalid url", filename)
	}
	return u, nil
}
