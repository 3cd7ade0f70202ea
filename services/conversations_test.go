package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-uc2-dashboard/models"
)

const conversationsBody = `{"status":"success","results":2,"data":{"conversations":[
 {"_id":"c1","client":{"_id":"cl1","firstName":"Ada","lastName":"Lovelace","email":"ada@x.io"},
  "agent":{"_id":"u1","name":"Bob","email":"bob@x.io"},"status":"active",
  "lastMessage":"hello","lastMessageAt":"2024-05-01T10:00:00.000Z","unreadCount":{"agent":2,"client":0}},
 {"_id":"c2","client":"cl2","agent":"u1","status":"archived"}]}}`

func TestConversations_ListNormalizes(t *testing.T) {
	_, d := newBackend(t, map[string]string{"GET /conversations": conversationsBody})
	convs, err := NewConversations(d.API).ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)

	c := convs[0]
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Ada Lovelace", c.Client.Name)
	assert.Equal(t, "cl1", c.Client.ID)
	assert.Equal(t, "Bob", c.Agent.Name)
	assert.Equal(t, models.ConversationOpen, c.Status)
	assert.Equal(t, 2, c.Unread.Agent)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), c.LastMessageAt.UTC())

	assert.Equal(t, "cl2", convs[1].Client.ID)
	assert.Equal(t, models.ConversationClosed, convs[1].Status)
}

func TestConversations_MessagesFillConversationID(t *testing.T) {
	_, d := newBackend(t, map[string]string{
		"GET /conversations/c1/messages": `{"status":"success","data":{"messages":[
			{"_id":"m1","sender":{"_id":"u1","name":"Bob"},"content":"hi","createdAt":"2024-05-01T10:00:00Z"},
			{"_id":"m2","sender":{"_id":"cl1","name":"Ada"},"content":"yo","read":true,"createdAt":"2024-05-01T10:01:00Z"}]}}`,
	})
	msgs, err := NewConversations(d.API).Messages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "c1", msgs[0].ConversationID)
	assert.Equal(t, "u1", msgs[0].Sender.ID)
	assert.True(t, msgs[1].Read)
}

func TestConversations_SendReturnsUserThenAIReply(t *testing.T) {
	b, d := newBackend(t, map[string]string{
		"POST /conversations/c1/messages": `{"status":"success","data":{
			"message":{"_id":"m1","sender":"u1","content":"price?","createdAt":"2024-05-01T10:00:00Z"},
			"aiMessage":{"_id":"m2","origin":"ai","content":"25k","createdAt":"2024-05-01T10:00:01Z"}}}`,
	})
	msgs, err := NewConversations(d.API).SendMessage(context.Background(), "c1", "price?", "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, models.OriginAI, msgs[1].Origin)
	assert.JSONEq(t, `{"content":"price?"}`, b.body("POST /conversations/c1/messages"))
}

func TestConversations_StartRequiresClient(t *testing.T) {
	b, d := newBackend(t, nil)
	_, err := NewConversations(d.API).StartConversation(context.Background(), " ", "v1")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Zero(t, b.total.Load())
}

func TestConversations_Start(t *testing.T) {
	b, d := newBackend(t, map[string]string{
		"POST /conversations": `{"status":"success","data":{"conversation":{"_id":"c9","client":{"_id":"cl1","firstName":"Ada","lastName":"L"}}}}`,
	})
	conv, err := NewConversations(d.API).StartConversation(context.Background(), "cl1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "c9", conv.ID)
	assert.JSONEq(t, `{"clientId":"cl1","vehicleId":"v1"}`, b.body("POST /conversations"))
}

func TestConversations_StartAINegotiation(t *testing.T) {
	b, d := newBackend(t, map[string]string{
		"POST /conversations": `{"status":"success","data":{"conversation":{"_id":"c7","agent":"u1"}}}`,
	})
	c := NewConversations(d.API)

	_, err := c.StartAINegotiation(context.Background(), AINegotiation{UserID: "u1", VehicleID: "v1"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Zero(t, b.count("POST /conversations"))

	conv, err := c.StartAINegotiation(context.Background(), AINegotiation{UserID: "u1", VehicleID: "v1", VehicleName: "Renault Clio", AgencyID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "c7", conv.ID)
	assert.True(t, conv.IsAI())
	assert.Equal(t, "v1", conv.VehicleID)
	assert.Equal(t, "[IA] Négociation pour Renault Clio", conv.Subject)
	assert.JSONEq(t, `{"participantIds":["u1","a1"],"vehicleId":"v1","subject":"[IA] Négociation pour Renault Clio","isAiNegotiation":true}`,
		b.body("POST /conversations"))
}

func TestConversationIsAI(t *testing.T) {
	assert.True(t, models.Conversation{Subject: " [IA] Négociation"}.IsAI())
	assert.True(t, models.Conversation{AINegotiation: true}.IsAI())
	assert.False(t, models.Conversation{Subject: "Négociation"}.IsAI())
}

func TestConversations_Upload(t *testing.T) {
	_, d := newBackend(t, map[string]string{"POST /upload": `{"status":"success","url":"/uploads/a.pdf"}`})
	u, err := NewConversations(d.API).Upload(context.Background(), "a.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.pdf", u)
}

func TestDecodeMessagePush(t *testing.T) {
	id, m, err := DecodeMessagePush([]byte(`{"conversationId":"c1","message":{"_id":"m1","conversation":"c1","sender":{"_id":"u2","name":"Eve","email":"eve@x.io"},"content":"ok","createdAt":"2024-05-01T10:00:00Z"}}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "Eve", m.Sender.Name)

	_, _, err = DecodeMessagePush([]byte(`{"conversationId":"c1"}`))
	assert.Error(t, err)
	_, _, err = DecodeMessagePush([]byte(`{"message":{"content":"no ids"}}`))
	assert.Error(t, err)
}
