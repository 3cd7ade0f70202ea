// Package negotiation keeps one de-duplicated, time-ordered transcript for the
// selected conversation, fed by REST history, send responses and push events.
//
// All state changes go through Reduce, a pure function over tagged events.
package negotiation

import (
	"slices"
	"sort"

	"auto-uc2-dashboard/models"
)

type EventType int

const (
	ConversationsLoaded EventType = iota + 1
	ConversationAdded
	ConversationDeleted
	Selected
	SelectionCleared
	HistoryLoaded
	PushReceived
	Sent
	TypingChanged
	MessagesRead
	MetricsUpdated
)

func (t EventType) String() string {
	switch t {
	case ConversationsLoaded:
		return "conversations_loaded"
	case ConversationAdded:
		return "conversation_added"
	case ConversationDeleted:
		return "conversation_deleted"
	case Selected:
		return "selected"
	case SelectionCleared:
		return "selection_cleared"
	case HistoryLoaded:
		return "history_loaded"
	case PushReceived:
		return "push_received"
	case Sent:
		return "sent"
	case TypingChanged:
		return "typing_changed"
	case MessagesRead:
		return "messages_read"
	case MetricsUpdated:
		return "metrics_updated"
	default:
		return "unknown"
	}
}

// Event is the tagged union consumed by Reduce. Only the fields relevant to
// Type are read.
type Event struct {
	Type           EventType
	ConversationID string
	Conversations  []models.Conversation
	Messages       []models.Message
	Typing         bool
	Metrics        models.MetricsUpdate
}

// State is everything the negotiation screen renders.
type State struct {
	Conversations []models.Conversation
	Selected      string
	Transcript    []models.Message
	RemoteTyping  bool
	Metrics       models.LiveMetrics
}

// Options tune the reducer. The zero value is usable.
type Options struct {
	// Me is the operator's user id; it is never counted as unread.
	Me string
	// SuppressAIPush drops AI-originated push messages, which arrive through
	// the send response instead.
	SuppressAIPush bool
	// AIBotEmail identifies AI messages that carry no server-asserted origin.
	AIBotEmail string
	// MetricsLogCap bounds the rolling metrics log. Defaults to 5.
	MetricsLogCap int
}

func (o Options) logCap() int {
	if o.MetricsLogCap <= 0 {
		return 5
	}
	return o.MetricsLogCap
}

// Effects tell the presentation layer what to do besides re-rendering.
type Effects struct {
	ScrollToBottom bool
}

// Reduce applies ev to s. The input state is never mutated.
func Reduce(s State, ev Event, opts Options) (State, Effects) {
	var fx Effects
	switch ev.Type {
	case ConversationsLoaded:
		s.Conversations = sortByActivity(dedupeConversations(ev.Conversations))

	case ConversationAdded:
		if len(ev.Conversations) == 0 {
			break
		}
		s.Conversations = sortByActivity(dedupeConversations(append(slices.Clone(ev.Conversations), s.Conversations...)))

	case ConversationDeleted:
		s.Conversations = slices.DeleteFunc(slices.Clone(s.Conversations), func(c models.Conversation) bool {
			return c.ID == ev.ConversationID
		})
		if s.Selected == ev.ConversationID {
			s = clearSelection(s)
		}

	case Selected:
		s = clearSelection(s)
		s.Selected = ev.ConversationID

	case SelectionCleared:
		s = clearSelection(s)

	case HistoryLoaded:
		if !s.isSelected(ev.ConversationID) {
			break
		}
		s.Transcript = merge(s.Transcript, ev.Messages)
		s.Conversations = resetUnread(s.Conversations, ev.ConversationID, opts.Me)
		fx.ScrollToBottom = true

	case PushReceived:
		for _, m := range ev.Messages {
			if s.isSelected(ev.ConversationID) {
				if opts.SuppressAIPush && m.FromAI(opts.AIBotEmail) {
					continue
				}
				before := len(s.Transcript)
				s.Transcript = merge(s.Transcript, []models.Message{m})
				if len(s.Transcript) > before {
					fx.ScrollToBottom = true
				}
				s.Conversations = touch(s.Conversations, ev.ConversationID, m, false, opts.Me)
			} else {
				s.Conversations = touch(s.Conversations, ev.ConversationID, m, !m.SentBy(opts.Me), opts.Me)
			}
		}

	case Sent:
		if !s.isSelected(ev.ConversationID) {
			break
		}
		s.Transcript = merge(s.Transcript, ev.Messages)
		if n := len(ev.Messages); n > 0 {
			s.Conversations = touch(s.Conversations, ev.ConversationID, ev.Messages[n-1], false, opts.Me)
		}
		fx.ScrollToBottom = true

	case TypingChanged:
		if s.isSelected(ev.ConversationID) {
			s.RemoteTyping = ev.Typing
		}

	case MessagesRead:
		if !s.isSelected(ev.ConversationID) {
			break
		}
		transcript := slices.Clone(s.Transcript)
		for i := range transcript {
			transcript[i].Read = true
		}
		s.Transcript = transcript

	case MetricsUpdated:
		if s.isSelected(ev.ConversationID) {
			s.Metrics = MergeMetrics(s.Metrics, ev.Metrics, opts.logCap())
		}
	}
	return s, fx
}

func (s State) isSelected(id string) bool {
	return id != "" && s.Selected == id
}

// SelectedConversation returns the selected conversation, if it is in the list.
func (s State) SelectedConversation() (models.Conversation, bool) {
	for _, c := range s.Conversations {
		if c.ID == s.Selected {
			return c, true
		}
	}
	return models.Conversation{}, false
}

func clearSelection(s State) State {
	s.Selected = ""
	s.Transcript = nil
	s.RemoteTyping = false
	s.Metrics = models.LiveMetrics{}
	return s
}

// merge returns dedupe(existing ∪ incoming) ordered by creation time. On an id
// collision the first copy wins, except that a read flag is never lost.
func merge(existing, incoming []models.Message) []models.Message {
	out := make([]models.Message, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, batch := range [][]models.Message{existing, incoming} {
		for _, m := range batch {
			if m.ID == "" {
				continue
			}
			if i, ok := index[m.ID]; ok {
				out[i].Read = out[i].Read || m.Read
				continue
			}
			index[m.ID] = len(out)
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func dedupeConversations(in []models.Conversation) []models.Conversation {
	seen := make(map[string]bool, len(in))
	out := make([]models.Conversation, 0, len(in))
	for _, c := range in {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func sortByActivity(in []models.Conversation) []models.Conversation {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].LastMessageAt.After(in[j].LastMessageAt)
	})
	return in
}

// touch refreshes the list preview of conversation id after message m and,
// when unread is set, bumps the unread counter of me's side.
func touch(list []models.Conversation, id string, m models.Message, unread bool, me string) []models.Conversation {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if !m.CreatedAt.Before(out[i].LastMessageAt) {
			out[i].LastMessage = m.Content
			out[i].LastMessageAt = m.CreatedAt
		}
		if unread {
			if me != "" && out[i].Client.ID == me {
				out[i].Unread.Client++
			} else {
				out[i].Unread.Agent++
			}
		}
		return sortByActivity(out)
	}
	return out
}

func resetUnread(list []models.Conversation, id, me string) []models.Conversation {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if me != "" && out[i].Client.ID == me {
			out[i].Unread.Client = 0
		} else {
			out[i].Unread.Agent = 0
		}
	}
	return out
}
