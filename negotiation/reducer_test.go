package negotiation

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-uc2-dashboard/models"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func msg(id string, sec int, sender string) models.Message {
	return models.Message{ID: id, ConversationID: "c1", Sender: models.Participant{ID: sender}, Content: id, CreatedAt: t0.Add(time.Duration(sec) * time.Second)}
}

func ids(ms []models.Message) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func selected(id string) State {
	s, _ := Reduce(State{Conversations: []models.Conversation{{ID: "c1"}, {ID: "c2"}}}, Event{Type: Selected, ConversationID: id}, Options{})
	return s
}

func TestReduce_TranscriptIsDedupeOfHistoryAndPush(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		pool := make([]models.Message, 8)
		for i := range pool {
			pool[i] = msg(string(rune('a'+i)), rng.Intn(5), "u2")
		}
		var history, pushes []models.Message
		for _, m := range pool {
			switch rng.Intn(3) {
			case 0:
				history = append(history, m)
			case 1:
				pushes = append(pushes, m)
			default:
				history = append(history, m)
				pushes = append(pushes, m)
			}
		}

		s := selected("c1")
		historyAt := rng.Intn(len(pushes) + 1)
		for i, p := range pushes {
			if i == historyAt {
				s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: history}, Options{})
			}
			s, _ = Reduce(s, Event{Type: PushReceived, ConversationID: "c1", Messages: []models.Message{p}}, Options{})
		}
		if historyAt == len(pushes) {
			s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: history}, Options{})
		}

		seen := map[string]bool{}
		for _, m := range s.Transcript {
			require.False(t, seen[m.ID], "duplicate %s", m.ID)
			seen[m.ID] = true
		}
		want := map[string]bool{}
		for _, m := range append(append([]models.Message{}, history...), pushes...) {
			want[m.ID] = true
		}
		assert.Equal(t, want, seen)
		assert.True(t, sort.SliceIsSorted(s.Transcript, func(i, j int) bool {
			return s.Transcript[i].CreatedAt.Before(s.Transcript[j].CreatedAt)
		}))
	}
}

func TestReduce_SwitchingClearsBeforeNewData(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: []models.Message{msg("a", 1, "u2")}}, Options{})
	v := 0.5
	s, _ = Reduce(s, Event{Type: MetricsUpdated, ConversationID: "c1", Metrics: models.MetricsUpdate{ConversationID: "c1", Sentiment: &v}}, Options{})
	s, _ = Reduce(s, Event{Type: TypingChanged, ConversationID: "c1", Typing: true}, Options{})

	s, _ = Reduce(s, Event{Type: Selected, ConversationID: "c2"}, Options{})
	assert.Equal(t, "c2", s.Selected)
	assert.Empty(t, s.Transcript)
	assert.Equal(t, models.LiveMetrics{}, s.Metrics)
	assert.False(t, s.RemoteTyping)

	// the stale history of c1 arrives after the switch
	s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: []models.Message{msg("a", 1, "u2")}}, Options{})
	assert.Empty(t, s.Transcript)
	s, _ = Reduce(s, Event{Type: Sent, ConversationID: "c1", Messages: []models.Message{msg("b", 2, "me")}}, Options{})
	assert.Empty(t, s.Transcript)
}

func TestReduce_PushForOtherConversationOnlyTouchesList(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: []models.Message{msg("a", 1, "u2")}}, Options{Me: "me"})
	before := s.Transcript

	other := msg("z", 9, "u3")
	other.ConversationID = "c2"
	s, fx := Reduce(s, Event{Type: PushReceived, ConversationID: "c2", Messages: []models.Message{other}}, Options{Me: "me"})
	assert.Equal(t, before, s.Transcript)
	assert.False(t, fx.ScrollToBottom)
	require.Equal(t, "c2", s.Conversations[0].ID, "most recent activity first")
	assert.Equal(t, 1, s.Conversations[0].Unread.Agent)
	assert.Equal(t, "z", s.Conversations[0].LastMessage)
}

func TestReduce_AIPushSuppressed(t *testing.T) {
	opts := Options{SuppressAIPush: true, AIBotEmail: "bot@auto-uc2.io"}
	s := selected("c1")

	ai := msg("ai1", 1, "bot")
	ai.Origin = models.OriginAI
	legacy := msg("ai2", 2, "bot")
	legacy.Sender.Email = "BOT@auto-uc2.io"
	human := msg("h1", 3, "u2")
	human.Origin = models.OriginHuman
	human.Sender.Email = "bot@auto-uc2.io"

	s, _ = Reduce(s, Event{Type: PushReceived, ConversationID: "c1", Messages: []models.Message{ai, legacy, human}}, opts)
	assert.Equal(t, []string{"h1"}, ids(s.Transcript), "origin wins over the email fallback")

	reply := msg("ai3", 5, "bot")
	reply.Origin = models.OriginAI
	s, _ = Reduce(s, Event{Type: Sent, ConversationID: "c1", Messages: []models.Message{msg("me1", 4, "me"), reply}}, opts)
	assert.Equal(t, []string{"h1", "me1", "ai3"}, ids(s.Transcript), "AI replies come through the send response")
}

func TestReduce_SentAppendsInOrderAndEchoIsDropped(t *testing.T) {
	s := selected("c1")
	own := msg("m1", 1, "me")
	reply := msg("m2", 1, "bot")
	s, fx := Reduce(s, Event{Type: Sent, ConversationID: "c1", Messages: []models.Message{own, reply}}, Options{})
	assert.True(t, fx.ScrollToBottom)
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Transcript))

	s, fx = Reduce(s, Event{Type: PushReceived, ConversationID: "c1", Messages: []models.Message{own}}, Options{})
	assert.False(t, fx.ScrollToBottom)
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Transcript))
}

func TestReduce_MessagesReadMarksTranscript(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: Sent, ConversationID: "c1", Messages: []models.Message{msg("m1", 1, "me"), msg("m2", 2, "me")}}, Options{})
	prev := s.Transcript

	s, _ = Reduce(s, Event{Type: MessagesRead, ConversationID: "c2"}, Options{})
	assert.False(t, s.Transcript[0].Read)

	s, _ = Reduce(s, Event{Type: MessagesRead, ConversationID: "c1"}, Options{})
	for _, m := range s.Transcript {
		assert.True(t, m.Read)
	}
	assert.False(t, prev[0].Read, "input state is not mutated")
}

func TestReduce_DeleteSelected(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1", Messages: []models.Message{msg("a", 1, "u2")}}, Options{})

	s, _ = Reduce(s, Event{Type: ConversationDeleted, ConversationID: "c1"}, Options{})
	assert.Empty(t, s.Selected)
	assert.Empty(t, s.Transcript)
	require.Len(t, s.Conversations, 1)
	assert.Equal(t, "c2", s.Conversations[0].ID)
}

func TestReduce_DeleteOtherKeepsSelection(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: ConversationDeleted, ConversationID: "c2"}, Options{})
	assert.Equal(t, "c1", s.Selected)
	assert.Len(t, s.Conversations, 1)
}

func TestReduce_ConversationAddedDedupes(t *testing.T) {
	s := selected("c1")
	s, _ = Reduce(s, Event{Type: ConversationAdded, Conversations: []models.Conversation{{ID: "c2", Subject: "new"}, {ID: "c3"}}}, Options{})
	require.Len(t, s.Conversations, 3)
	for _, c := range s.Conversations {
		if c.ID == "c2" {
			assert.Equal(t, "new", c.Subject)
		}
	}
}

func TestReduce_HistoryResetsUnread(t *testing.T) {
	s := State{Conversations: []models.Conversation{{ID: "c1", Client: models.Participant{ID: "cl"}, Unread: models.UnreadCount{Agent: 3, Client: 1}}}}
	s, _ = Reduce(s, Event{Type: Selected, ConversationID: "c1"}, Options{Me: "me"})
	s, _ = Reduce(s, Event{Type: HistoryLoaded, ConversationID: "c1"}, Options{Me: "me"})
	assert.Equal(t, models.UnreadCount{Agent: 0, Client: 1}, s.Conversations[0].Unread)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "history_loaded", HistoryLoaded.String())
	assert.Equal(t, "push_received", PushReceived.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
