package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/realtime"
	"auto-uc2-dashboard/services"
)

var (
	ErrNoSelection        = errors.New("no conversation selected")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrSendInFlight       = errors.New("a message is already being sent")
	ErrAttachmentTooLarge = errors.New("attachment too large")
)

// AttachmentCaption is sent as the text of an attachment-only message.
const AttachmentCaption = "📎 Fichier joint"

// ConversationAPI is the REST side of the negotiation screen.
type ConversationAPI interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	StartConversation(ctx context.Context, clientID, vehicleID string) (models.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, content, fileURL string) ([]models.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
	StartAINegotiation(ctx context.Context, n services.AINegotiation) (models.Conversation, error)
}

// Channel is the push side; *realtime.Socket satisfies it.
type Channel interface {
	Connected() bool
	Join(conversationID string) error
	Leave(conversationID string) error
	Emit(event string, payload any) error
	On(event string, h realtime.Handler) (off func())
}

// Notifier shows transient, non-blocking notifications.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

type Attachment struct {
	Name string
	Size int64
	Body io.Reader
}

type Config struct {
	Options
	TypingQuiet         time.Duration
	RemoteTypingTimeout time.Duration
	MaxAttachmentBytes  int64
	AutoSelectFirst     bool
}

func (c Config) withDefaults() Config {
	if c.TypingQuiet <= 0 {
		c.TypingQuiet = 2 * time.Second
	}
	if c.RemoteTypingTimeout <= 0 {
		c.RemoteTypingTimeout = 5 * time.Second
	}
	if c.MaxAttachmentBytes <= 0 {
		c.MaxAttachmentBytes = 10 << 20
	}
	return c
}

// Snapshot is a read-only view of the session; its slices must not be mutated.
type Snapshot struct {
	State
	Connected bool
	Sending   bool
	Loading   bool
}

type subscriber func(Snapshot, Effects)

// Session drives the negotiation screen: it owns the reducer state and wires
// REST calls and push events into it.
type Session struct {
	api    ConversationAPI
	ch     Channel
	notify Notifier
	logger *slog.Logger
	cfg    Config

	// roomMu sequences selection changes so leave/join never interleave.
	roomMu sync.Mutex

	mu           sync.Mutex
	state        State
	sending      bool
	loading      bool
	seq          uint64
	localTyping  *time.Timer
	remoteTyping *time.Timer
	subs         map[uint64]subscriber
	nextSub      uint64
	offs         []func()

	pubMu     sync.Mutex
	published uint64
}

func NewSession(capi ConversationAPI, ch Channel, notify Notifier, logger *slog.Logger, cfg Config) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		api:    capi,
		ch:     ch,
		notify: notify,
		logger: logger.With("component", "negotiation"),
		cfg:    cfg.withDefaults(),
		subs:   make(map[uint64]subscriber),
	}
	s.offs = []func(){
		ch.On(realtime.EventNewMessage, s.onNewMessage),
		ch.On(realtime.EventUserTyping, func(raw json.RawMessage) { s.onTyping(raw, true) }),
		ch.On(realtime.EventUserStopTyping, func(raw json.RawMessage) { s.onTyping(raw, false) }),
		ch.On(realtime.EventMessagesRead, s.onMessagesRead),
		ch.On(realtime.EventMetricsUpdate, s.onMetrics),
	}
	return s
}

// Close detaches push handlers, stops timers and leaves the selected room.
// The channel itself stays open.
func (s *Session) Close() {
	s.mu.Lock()
	offs := s.offs
	s.offs = nil
	room := s.state.Selected
	stopTimer(s.localTyping)
	stopTimer(s.remoteTyping)
	s.mu.Unlock()
	for _, off := range offs {
		off()
	}
	if room != "" && offs != nil {
		_ = s.ch.Leave(room)
	}
}

func (s *Session) Me() string { return s.cfg.Me }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, Connected: s.ch.Connected(), Sending: s.sending, Loading: s.loading}
}

// Subscribe registers fn for every state change; the returned func unregisters it.
func (s *Session) Subscribe(fn func(Snapshot, Effects)) (cancel func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh republishes the current snapshot, e.g. after a connectivity change.
func (s *Session) Refresh() {
	s.mutate(func() Effects { return Effects{} })
}

func (s *Session) dispatch(ev Event) {
	s.mutate(func() Effects {
		var fx Effects
		s.state, fx = Reduce(s.state, ev, s.cfg.Options)
		return fx
	})
}

func (s *Session) setFlag(flag *bool, v bool) {
	s.mutate(func() Effects {
		*flag = v
		return Effects{}
	})
}

// mutate runs fn under the state lock and publishes the result. Snapshots are
// delivered in order; one overtaken by a newer delivery is dropped.
func (s *Session) mutate(fn func() Effects) {
	s.mu.Lock()
	fx := fn()
	s.seq++
	seq := s.seq
	snap := s.snapshotLocked()
	subs := make([]subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if seq <= s.published {
		return
	}
	s.published = seq
	for _, sub := range subs {
		sub(snap, fx)
	}
}

// Load fetches the operator's conversations once. On failure the list stays
// empty. preselect, when present in the list, is selected; otherwise the first
// conversation is when AutoSelectFirst is set and nothing is selected yet.
func (s *Session) Load(ctx context.Context, preselect string) error {
	s.setFlag(&s.loading, true)
	convs, err := s.api.ListConversations(ctx)
	s.setFlag(&s.loading, false)
	if err != nil {
		s.fail("fetch conversations", err)
		s.dispatch(Event{Type: ConversationsLoaded})
		return err
	}
	s.dispatch(Event{Type: ConversationsLoaded, Conversations: convs})

	snap := s.Snapshot()
	target := ""
	for _, c := range snap.Conversations {
		if preselect != "" && c.ID == preselect {
			target = c.ID
			break
		}
	}
	if target == "" && s.cfg.AutoSelectFirst && snap.Selected == "" && len(snap.Conversations) > 0 {
		target = snap.Conversations[0].ID
	}
	if target == "" {
		return nil
	}
	return s.Select(ctx, target)
}

// Select switches the screen to conversation id: the transcript and metrics are
// cleared at once, the room is swapped, then the history is fetched. A history
// response that arrives after another selection is discarded by the reducer.
func (s *Session) Select(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoSelection
	}

	s.roomMu.Lock()
	s.mu.Lock()
	prev := s.state.Selected
	pendingStop := s.localTyping != nil && s.localTyping.Stop()
	s.localTyping = nil
	stopTimer(s.remoteTyping)
	s.remoteTyping = nil
	s.mu.Unlock()

	if pendingStop && prev != "" {
		s.emitIfConnected(realtime.EmitStopTyping, prev)
	}
	s.dispatch(Event{Type: Selected, ConversationID: id})
	if prev != "" && prev != id {
		if err := s.ch.Leave(prev); err != nil {
			s.logger.Warn("leave room failed", slog.String("conversation", prev), slog.Any("error", err))
		}
	}
	if err := s.ch.Join(id); err != nil {
		s.logger.Warn("join room failed", slog.String("conversation", id), slog.Any("error", err))
	}
	s.roomMu.Unlock()

	msgs, err := s.api.Messages(ctx, id)
	if err != nil {
		s.fail("fetch messages", err)
		return err
	}
	s.dispatch(Event{Type: HistoryLoaded, ConversationID: id, Messages: msgs})

	if s.Snapshot().Selected == id {
		s.emitIfConnected(realtime.EmitMarkRead, id)
	}
	return nil
}

// ClearSelection leaves the current room and empties the transcript.
func (s *Session) ClearSelection() {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	prev := s.Snapshot().Selected
	s.dispatch(Event{Type: SelectionCleared})
	if prev != "" {
		if err := s.ch.Leave(prev); err != nil {
			s.logger.Warn("leave room failed", slog.String("conversation", prev), slog.Any("error", err))
		}
	}
}

// Start opens (or reuses) a conversation with a client and selects it.
func (s *Session) Start(ctx context.Context, clientID, vehicleID string) (models.Conversation, error) {
	if strings.TrimSpace(clientID) == "" {
		err := fmt.Errorf("%w: client is required", services.ErrValidation)
		s.notify.Error(err.Error())
		return models.Conversation{}, err
	}
	conv, err := s.api.StartConversation(ctx, clientID, vehicleID)
	if err != nil {
		s.fail("start conversation", err)
		return models.Conversation{}, err
	}
	s.dispatch(Event{Type: ConversationAdded, Conversations: []models.Conversation{conv}})
	return conv, s.Select(ctx, conv.ID)
}

// DefaultAIOpening opens an AI negotiation when the operator typed nothing.
const DefaultAIOpening = "Bonjour, je souhaite négocier le prix de ce véhicule avec l'IA."

// StartAI resumes the AI negotiation already open for the vehicle, or creates
// one and sends opening (DefaultAIOpening when blank). reused reports a
// resumed conversation; nothing is sent then.
func (s *Session) StartAI(ctx context.Context, vehicleID, vehicleName, agencyID, opening string) (conv models.Conversation, reused bool, err error) {
	if strings.TrimSpace(vehicleID) == "" {
		err := fmt.Errorf("%w: vehicle is required", services.ErrValidation)
		s.notify.Error(err.Error())
		return models.Conversation{}, false, err
	}

	existing, err := s.api.ListConversations(ctx)
	if err != nil {
		s.logger.Warn("lookup of open AI negotiations failed", slog.Any("error", err))
	}
	for _, c := range existing {
		if c.VehicleID == vehicleID && c.IsAI() {
			s.dispatch(Event{Type: ConversationAdded, Conversations: []models.Conversation{c}})
			return c, true, s.Select(ctx, c.ID)
		}
	}

	conv, err = s.api.StartAINegotiation(ctx, services.AINegotiation{
		UserID:      s.cfg.Me,
		VehicleID:   vehicleID,
		VehicleName: vehicleName,
		AgencyID:    agencyID,
	})
	if err != nil {
		s.logger.Error("start AI negotiation failed", slog.String("vehicle", vehicleID), slog.Any("error", err))
		s.notify.Error("Impossible de démarrer la négociation. L'agence n'a peut-être pas activé ce service.")
		return models.Conversation{}, false, err
	}
	s.dispatch(Event{Type: ConversationAdded, Conversations: []models.Conversation{conv}})
	if err := s.Select(ctx, conv.ID); err != nil {
		return conv, false, err
	}
	if strings.TrimSpace(opening) == "" {
		opening = DefaultAIOpening
	}
	return conv, false, s.Send(ctx, opening, nil)
}

// Send uploads the optional attachment, then posts the message. The response
// may carry an AI reply after the operator's own message; both are appended.
// A second Send while one is in flight is rejected.
func (s *Session) Send(ctx context.Context, text string, att *Attachment) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	id := s.state.Selected
	switch {
	case id == "":
		s.mu.Unlock()
		return ErrNoSelection
	case text == "" && att == nil:
		s.mu.Unlock()
		return ErrEmptyMessage
	case s.sending:
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.sending = true
	s.mu.Unlock()
	s.Refresh()

	defer func() {
		s.stopTyping(id)
		s.setFlag(&s.sending, false)
	}()

	fileURL := ""
	if att != nil {
		if att.Size > s.cfg.MaxAttachmentBytes {
			err := fmt.Errorf("%w: %d bytes exceeds %d", ErrAttachmentTooLarge, att.Size, s.cfg.MaxAttachmentBytes)
			s.notify.Error(fmt.Sprintf("File too large (max %d MB)", s.cfg.MaxAttachmentBytes>>20))
			return err
		}
		url, err := s.api.Upload(ctx, att.Name, att.Body)
		if err != nil {
			s.fail("upload attachment", err)
			return err
		}
		fileURL = url
	}
	if text == "" {
		text = AttachmentCaption
	}

	msgs, err := s.api.SendMessage(ctx, id, text, fileURL)
	if err != nil {
		s.fail("send message", err)
		return err
	}
	s.dispatch(Event{Type: Sent, ConversationID: id, Messages: msgs})
	return nil
}

// Keystroke signals typing in the compose box and re-arms the stop-typing timer.
func (s *Session) Keystroke() {
	s.mu.Lock()
	id := s.state.Selected
	s.mu.Unlock()
	if id == "" || !s.ch.Connected() {
		return
	}
	s.emitIfConnected(realtime.EmitTyping, id)

	s.mu.Lock()
	stopTimer(s.localTyping)
	s.localTyping = time.AfterFunc(s.cfg.TypingQuiet, func() {
		s.mu.Lock()
		s.localTyping = nil
		s.mu.Unlock()
		s.emitIfConnected(realtime.EmitStopTyping, id)
	})
	s.mu.Unlock()
}

func (s *Session) stopTyping(id string) {
	s.mu.Lock()
	stopTimer(s.localTyping)
	s.localTyping = nil
	s.mu.Unlock()
	s.emitIfConnected(realtime.EmitStopTyping, id)
}

// Delete removes a conversation after explicit confirmation. Deleting the
// selected conversation also clears the selection and transcript.
func (s *Session) Delete(ctx context.Context, id string, confirmed bool) error {
	if err := services.RequireConfirmation(confirmed, "delete conversation "+id); err != nil {
		return err
	}
	if err := s.api.DeleteConversation(ctx, id); err != nil {
		s.fail("delete conversation", err)
		return err
	}

	s.roomMu.Lock()
	wasSelected := s.Snapshot().Selected == id
	s.dispatch(Event{Type: ConversationDeleted, ConversationID: id})
	if wasSelected {
		s.mu.Lock()
		stopTimer(s.localTyping)
		s.localTyping = nil
		stopTimer(s.remoteTyping)
		s.remoteTyping = nil
		s.mu.Unlock()
		if err := s.ch.Leave(id); err != nil {
			s.logger.Warn("leave room failed", slog.String("conversation", id), slog.Any("error", err))
		}
	}
	s.roomMu.Unlock()

	s.notify.Success("Conversation deleted")
	return nil
}

func (s *Session) onNewMessage(raw json.RawMessage) {
	convID, msg, err := services.DecodeMessagePush(raw)
	if err != nil {
		s.logger.Warn("dropping malformed new_message", slog.Any("error", err))
		return
	}
	s.dispatch(Event{Type: PushReceived, ConversationID: convID, Messages: []models.Message{msg}})
}

type roomSignal struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	ReadBy         string `json:"readBy"`
}

func (s *Session) onTyping(raw json.RawMessage, typing bool) {
	var sig roomSignal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return
	}
	if sig.UserID != "" && sig.UserID == s.cfg.Me {
		return
	}

	// Rooms left earlier may keep signalling; only the selected one owns the timer.
	s.mu.Lock()
	if !s.state.isSelected(sig.ConversationID) {
		s.mu.Unlock()
		return
	}
	stopTimer(s.remoteTyping)
	s.remoteTyping = nil
	if typing {
		id := sig.ConversationID
		s.remoteTyping = time.AfterFunc(s.cfg.RemoteTypingTimeout, func() {
			s.dispatch(Event{Type: TypingChanged, ConversationID: id, Typing: false})
		})
	}
	s.mu.Unlock()

	s.dispatch(Event{Type: TypingChanged, ConversationID: sig.ConversationID, Typing: typing})
}

func (s *Session) onMessagesRead(raw json.RawMessage) {
	var sig roomSignal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return
	}
	if sig.ReadBy != "" && sig.ReadBy == s.cfg.Me {
		return
	}
	s.dispatch(Event{Type: MessagesRead, ConversationID: sig.ConversationID})
}

func (s *Session) onMetrics(raw json.RawMessage) {
	var upd models.MetricsUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		s.logger.Warn("dropping malformed metrics update", slog.Any("error", err))
		return
	}
	s.dispatch(Event{Type: MetricsUpdated, ConversationID: upd.ConversationID, Metrics: upd})
}

// emitIfConnected is a silent no-op while the channel is down.
func (s *Session) emitIfConnected(event, conversationID string) {
	if !s.ch.Connected() {
		return
	}
	if err := s.ch.Emit(event, realtime.RoomPayload{ConversationID: conversationID}); err != nil {
		s.logger.Debug("emit failed", slog.String("event", event), slog.Any("error", err))
	}
}

func (s *Session) fail(op string, err error) {
	s.logger.Error(op+" failed", slog.Any("error", err))
	if errors.Is(err, context.Canceled) {
		return
	}
	s.notify.Error(api.Message(err))
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
