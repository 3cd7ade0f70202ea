package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/ui"
)

type focus int

const (
	focusList focus = iota
	focusInput
)

type (
	snapshotMsg struct {
		snap negotiation.Snapshot
		fx   negotiation.Effects
	}
	loginMsg  struct{ err error }
	opDoneMsg struct{ err error }
	// submitDoneMsg ends one compose-box submission; line is kept on failure.
	submitDoneMsg struct {
		line string
		err  error
	}
	refreshMsg struct{}
	tickMsg    time.Time
)

// outbox forwards messages into the running program once it exists.
type outbox struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (o *outbox) set(fn func(tea.Msg)) {
	o.mu.Lock()
	o.send = fn
	o.mu.Unlock()
}

func (o *outbox) post(msg tea.Msg) {
	o.mu.Lock()
	fn := o.send
	o.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// shared is the state reachable from goroutines outside the update loop.
type shared struct {
	mu   sync.Mutex
	sess *negotiation.Session
}

type model struct {
	ctx      context.Context
	sessions *session.Manager
	auth     *services.Auth
	build    func(me string) *negotiation.Session
	toasts   *ui.Toasts
	confirm  *ui.Confirm
	theme    ui.Theme
	out      *outbox
	live     *shared
	botEmail string

	snap       negotiation.Snapshot
	cursor     int
	focus      focus
	input      textinput.Model
	email      textinput.Model
	password   textinput.Model
	loginField int
	loggingIn  bool
	submitting bool
	transcript viewport.Model
	width      int
	height     int
}

func newModel(ctx context.Context, sessions *session.Manager, auth *services.Auth, build func(string) *negotiation.Session, toasts *ui.Toasts, botEmail string) *model {
	input := textinput.New()
	input.Placeholder = "Votre message… (/attach <fichier>, /new <client> [véhicule])"
	input.CharLimit = 2000

	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()
	password := textinput.New()
	password.Placeholder = "mot de passe"
	password.EchoMode = textinput.EchoPassword

	return &model{
		ctx:        ctx,
		sessions:   sessions,
		auth:       auth,
		build:      build,
		toasts:     toasts,
		confirm:    &ui.Confirm{},
		theme:      ui.DefaultTheme(),
		out:        &outbox{},
		live:       &shared{},
		botEmail:   botEmail,
		input:      input,
		email:      email,
		password:   password,
		transcript: viewport.New(60, 20),
	}
}

func (m *model) active() *negotiation.Session {
	m.live.mu.Lock()
	defer m.live.mu.Unlock()
	return m.live.sess
}

func (m *model) signedIn() bool {
	_, ok := m.sessions.Current()
	return ok && m.active() != nil
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), textinput.Blink}
	if s, ok := m.sessions.Current(); ok {
		cmds = append(cmds, m.bind(s.User.ID))
	}
	return tea.Batch(cmds...)
}

// bind opens the negotiation session of operator me and loads its conversations.
func (m *model) bind(me string) tea.Cmd {
	s := m.build(me)
	s.Subscribe(func(snap negotiation.Snapshot, fx negotiation.Effects) {
		m.out.post(snapshotMsg{snap: snap, fx: fx})
	})
	m.live.mu.Lock()
	prev := m.live.sess
	m.live.sess = s
	m.live.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	m.focus = focusInput
	m.input.Focus()
	return func() tea.Msg { return opDoneMsg{err: s.Load(m.ctx, "")} }
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.syncCursor()
		m.renderTranscript(msg.fx.ScrollToBottom)
		return m, nil

	case refreshMsg:
		if s := m.active(); s != nil {
			s.Refresh()
		}
		return m, nil

	case tickMsg:
		return m, tick()

	case loginMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.toasts.Error(msg.err.Error())
			return m, nil
		}
		s, _ := m.sessions.Current()
		return m, m.bind(s.User.ID)

	case opDoneMsg:
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		switch {
		case msg.err == nil:
			if m.input.Value() == msg.line {
				m.input.Reset()
			}
		case errors.Is(msg.err, negotiation.ErrNoSelection):
			m.toasts.Info("Sélectionnez une conversation")
		case errors.Is(msg.err, negotiation.ErrEmptyMessage):
			m.toasts.Info("Le message est vide")
		case errors.Is(msg.err, negotiation.ErrSendInFlight):
			m.toasts.Info("Envoi en cours…")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if !m.signedIn() {
			return m.updateLogin(msg)
		}
		if m.confirm.Open() {
			switch msg.String() {
			case "y", "Y", "enter":
				m.confirm.Resolve(true)
			case "n", "N", "esc":
				m.confirm.Resolve(false)
			}
			return m, nil
		}
		return m.updateConsole(msg)
	}
	return m, nil
}

func (m *model) updateLogin(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		m.loginField = 1 - m.loginField
		if m.loginField == 0 {
			m.password.Blur()
			m.email.Focus()
		} else {
			m.email.Blur()
			m.password.Focus()
		}
		return m, nil
	case tea.KeyEnter:
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		email, password := m.email.Value(), m.password.Value()
		return m, func() tea.Msg {
			grant, err := m.auth.Login(m.ctx, email, password)
			if err == nil {
				err = m.sessions.Set(m.ctx, session.Session{Token: grant.Token, User: grant.User})
			}
			return loginMsg{err: err}
		}
	}
	var cmd tea.Cmd
	if m.loginField == 0 {
		m.email, cmd = m.email.Update(k)
	} else {
		m.password, cmd = m.password.Update(k)
	}
	return m, cmd
}

func (m *model) updateConsole(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.active()
	switch k.Type {
	case tea.KeyTab:
		if m.focus == focusInput {
			m.focus = focusList
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	case tea.KeyCtrlD:
		conv, ok := m.snap.SelectedConversation()
		if !ok {
			return m, nil
		}
		id := conv.ID
		m.confirm.Ask("Supprimer la conversation", "Supprimer définitivement la conversation avec "+conv.Counterpart(s.Me()).Name+" ?", func() {
			go func() { m.out.post(opDoneMsg{err: s.Delete(m.ctx, id, true)}) }()
		})
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(k)
		return m, cmd
	}

	if m.focus == focusList {
		switch k.Type {
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown:
			if m.cursor < len(m.snap.Conversations)-1 {
				m.cursor++
			}
		case tea.KeyEnter:
			if m.cursor < len(m.snap.Conversations) {
				id := m.snap.Conversations[m.cursor].ID
				return m, func() tea.Msg { return opDoneMsg{err: s.Select(m.ctx, id)} }
			}
		}
		return m, nil
	}

	if k.Type == tea.KeyEnter {
		if m.submitting || m.snap.Sending {
			return m, nil
		}
		cmd := m.submit(s, m.input.Value())
		if cmd != nil {
			m.submitting = true
		}
		return m, cmd
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(k)
	if m.input.Value() != before {
		s.Keystroke()
	}
	return m, cmd
}

// submit runs one compose-box line: a message or a slash command. The box
// is only cleared once the returned command reports success.
func (m *model) submit(s *negotiation.Session, line string) tea.Cmd {
	c := parseCommand(line)
	done := func(err error) tea.Msg { return submitDoneMsg{line: line, err: err} }
	switch c.kind {
	case cmdNew:
		return func() tea.Msg {
			_, err := s.Start(m.ctx, c.args[0], c.arg(1))
			return done(err)
		}
	case cmdAttach:
		return func() tea.Msg {
			f, err := os.Open(c.args[0])
			if err != nil {
				m.toasts.Error("Fichier introuvable : " + c.args[0])
				return done(err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return done(err)
			}
			att := &negotiation.Attachment{Name: filepath.Base(c.args[0]), Size: info.Size(), Body: f}
			return done(s.Send(m.ctx, c.text, att))
		}
	case cmdInvalid:
		m.toasts.Error(c.text)
		return nil
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return func() tea.Msg { return done(s.Send(m.ctx, line, nil)) }
}

// syncCursor keeps the list cursor on the selected conversation.
func (m *model) syncCursor() {
	for i, c := range m.snap.Conversations {
		if c.ID == m.snap.Selected {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.snap.Conversations) {
		m.cursor = max(0, len(m.snap.Conversations)-1)
	}
}
