package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/realtime"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/ui"
)

type stubConversations struct {
	mu      sync.Mutex
	sendErr error
	sent    []string
}

func (s *stubConversations) ListConversations(context.Context) ([]models.Conversation, error) {
	return []models.Conversation{{ID: "c1", Client: models.Participant{ID: "u2", Name: "Ada"}}}, nil
}

func (s *stubConversations) StartConversation(_ context.Context, clientID, _ string) (models.Conversation, error) {
	return models.Conversation{ID: "n-" + clientID}, nil
}

func (s *stubConversations) Messages(context.Context, string) ([]models.Message, error) {
	return nil, nil
}

func (s *stubConversations) SendMessage(_ context.Context, id, content, _ string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, content)
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return []models.Message{{ID: "m" + content, ConversationID: id, Sender: models.Participant{ID: "me"}, Content: content}}, nil
}

func (s *stubConversations) StartAINegotiation(_ context.Context, n services.AINegotiation) (models.Conversation, error) {
	return models.Conversation{ID: "ai-" + n.VehicleID, VehicleID: n.VehicleID, AINegotiation: true}, nil
}

func (s *stubConversations) DeleteConversation(context.Context, string) error { return nil }

func (s *stubConversations) Upload(context.Context, string, io.Reader) (string, error) {
	return "", nil
}

func (s *stubConversations) sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type offlineChannel struct{}

func (offlineChannel) Connected() bool                    { return false }
func (offlineChannel) Join(string) error                  { return nil }
func (offlineChannel) Leave(string) error                 { return nil }
func (offlineChannel) Emit(string, any) error             { return realtime.ErrNotConnected }
func (offlineChannel) On(string, realtime.Handler) func() { return func() {} }

func newConsole(t *testing.T) (*model, *stubConversations) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(session.NewMemoryStore(), logger)
	require.NoError(t, sessions.Set(ctx, session.Session{Token: "tok", User: models.User{ID: "me"}}))

	api := &stubConversations{}
	toasts := ui.NewToasts()
	build := func(me string) *negotiation.Session {
		return negotiation.NewSession(api, offlineChannel{}, toasts, logger, negotiation.Config{
			Options:         negotiation.Options{Me: me},
			AutoSelectFirst: true,
		})
	}
	m := newModel(ctx, sessions, nil, build, toasts, "")
	load := m.bind("me")
	require.IsType(t, opDoneMsg{}, load())
	t.Cleanup(func() { m.active().Close() })
	require.Equal(t, "c1", m.active().Snapshot().Selected)
	return m, api
}

func enter(t *testing.T, m *model) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestConsole_FailedSendKeepsText(t *testing.T) {
	m, api := newConsole(t)
	api.sendErr = errors.New("boom")
	m.input.SetValue("mon offre finale")

	cmd := enter(t, m)
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, "mon offre finale", m.input.Value())
	assert.False(t, m.submitting)
	assert.Equal(t, 1, api.sends())
	assert.NotEmpty(t, m.toasts.Active())
}

func TestConsole_SuccessfulSendClearsText(t *testing.T) {
	m, api := newConsole(t)
	m.input.SetValue("bonjour")

	cmd := enter(t, m)
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Empty(t, m.input.Value())
	assert.Equal(t, []string{"bonjour"}, api.sent)
	assert.Len(t, m.active().Snapshot().Transcript, 1)
}

func TestConsole_EnterIgnoredWhileSending(t *testing.T) {
	m, api := newConsole(t)
	m.input.SetValue("premier")

	first := enter(t, m)
	require.NotNil(t, first)
	assert.Nil(t, enter(t, m), "a second Enter must not submit")
	assert.Equal(t, "premier", m.input.Value())

	m.Update(first())
	assert.Equal(t, 1, api.sends())
	assert.Empty(t, m.input.Value())

	m.snap.Sending = true
	m.input.SetValue("second")
	assert.Nil(t, enter(t, m))
	assert.Equal(t, "second", m.input.Value())
}

func TestConsole_InvalidCommandKeepsText(t *testing.T) {
	m, api := newConsole(t)
	m.input.SetValue("/attach")

	assert.Nil(t, enter(t, m))
	assert.Equal(t, "/attach", m.input.Value())
	assert.False(t, m.submitting)
	assert.Zero(t, api.sends())
}
