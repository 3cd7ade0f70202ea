package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/ui"
)

const (
	listWidth    = 30
	metricsWidth = 32
	chromeHeight = 8
)

type commandKind int

const (
	cmdMessage commandKind = iota
	cmdAttach
	cmdNew
	cmdInvalid
)

type command struct {
	kind commandKind
	args []string
	text string
}

func (c command) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// parseCommand splits a compose-box line into a plain message or a slash command.
func parseCommand(line string) command {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: cmdMessage, text: line}
	}
	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/attach":
		if len(fields) < 2 {
			return command{kind: cmdInvalid, text: "Usage : /attach <fichier> [texte]"}
		}
		return command{kind: cmdAttach, args: fields[1:2], text: strings.Join(fields[2:], " ")}
	case "/new":
		if len(fields) < 2 || len(fields) > 3 {
			return command{kind: cmdInvalid, text: "Usage : /new <client> [véhicule]"}
		}
		return command{kind: cmdNew, args: fields[1:]}
	}
	return command{kind: cmdMessage, text: line}
}

// transcriptLine renders one message as "[15:04] author: content".
func transcriptLine(m models.Message, me, botEmail string) string {
	author := m.Sender.Name
	switch {
	case m.FromAI(botEmail):
		author = "🤖 IA"
	case m.SentBy(me):
		author = "Moi"
	}
	content := m.Content
	if m.FileURL != "" {
		content = strings.TrimSpace(content + " [" + m.FileURL + "]")
	}
	return fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Local().Format("15:04"), author, content)
}

// sentimentBar draws v in [-1,1] as a gauge of the given width.
func sentimentBar(v float64, width int) string {
	if width < 3 {
		width = 3
	}
	pos := int((v + 1) / 2 * float64(width-1))
	pos = max(0, min(width-1, pos))
	return "[" + strings.Repeat("─", pos) + "●" + strings.Repeat("─", width-1-pos) + "]"
}

func (m *model) layout() {
	w := m.width - listWidth - metricsWidth - 6
	h := m.height - chromeHeight
	m.transcript.Width = max(20, w)
	m.transcript.Height = max(5, h)
	m.input.Width = max(20, m.width-4)
}

func (m *model) renderTranscript(bottom bool) {
	me := ""
	if s := m.active(); s != nil {
		me = s.Me()
	}
	lines := make([]string, 0, len(m.snap.Transcript))
	for _, msg := range m.snap.Transcript {
		lines = append(lines, transcriptLine(msg, me, m.botEmail))
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.Muted.Render("Aucun message"))
	}
	wrapped := lipgloss.NewStyle().Width(m.transcript.Width).Render(strings.Join(lines, "\n"))
	m.transcript.SetContent(wrapped)
	if bottom {
		m.transcript.GotoBottom()
	}
}

func (m *model) View() string {
	if !m.signedIn() {
		return m.loginView()
	}
	if m.confirm.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.Render(m.theme))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.chatView(), m.metricsView())
	parts := []string{m.headerView(), body, m.input.View()}
	if t := m.toasts.Render(m.theme); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, m.theme.Muted.Render("tab focus · ↑/↓ entrée sélection · ctrl+d supprimer · ctrl+c quitter"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *model) loginView() string {
	btn := ui.Button{Label: "Se connecter", Variant: ui.Primary, Loading: m.loggingIn}
	form := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelTitle.Render("Connexion"),
		"",
		m.email.View(),
		m.password.View(),
		"",
		btn.Render(m.theme),
		m.toasts.Render(m.theme),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.theme.Panel.Render(form))
}

func (m *model) headerView() string {
	status := m.theme.Badge("success", "● en ligne")
	if !m.snap.Connected {
		status = m.theme.Badge("error", "● hors ligne")
	}
	title := "Négociation"
	if s := m.active(); s != nil {
		if c, ok := m.snap.SelectedConversation(); ok {
			title += " · " + c.Counterpart(s.Me()).Name
		}
	}
	line := m.theme.Header.Render(title) + "  " + status
	if m.snap.RemoteTyping {
		line += "  " + m.theme.Muted.Render("est en train d'écrire…")
	}
	if m.snap.Loading {
		line += "  " + m.theme.Info.Render("chargement…")
	}
	return line
}

func (m *model) listView() string {
	me := ""
	if s := m.active(); s != nil {
		me = s.Me()
	}
	table := ui.Table{
		Columns: []ui.Column{{Title: "Client", Width: listWidth - 8}, {Title: "Non lus", Width: 6}},
		Cursor:  -1,
	}
	if m.focus == focusList {
		table.Cursor = m.cursor
	}
	for _, c := range m.snap.Conversations {
		unread := ""
		if n := c.UnreadFor(me); n > 0 {
			unread = fmt.Sprint(n)
		}
		name := c.Counterpart(me).Name
		if c.ID == m.snap.Selected {
			name = "› " + name
		}
		table.Rows = append(table.Rows, []string{name, unread})
	}
	return m.theme.Panel.Width(listWidth).Height(m.transcript.Height).Render(table.Render(m.theme))
}

func (m *model) chatView() string {
	send := ui.Button{Label: "Envoyer", Variant: ui.Primary, Loading: m.snap.Sending || m.submitting, Disabled: m.snap.Selected == ""}
	return m.theme.Panel.Render(m.transcript.View() + "\n" + send.Render(m.theme))
}

func (m *model) metricsView() string {
	return m.theme.Panel.Width(metricsWidth).Height(m.transcript.Height).Render(metricsText(m.theme, m.snap.Metrics, m.snap.Selected != ""))
}

func metricsText(th ui.Theme, lm models.LiveMetrics, selected bool) string {
	var b strings.Builder
	b.WriteString(th.PanelTitle.Render("Analyse IA") + "\n\n")
	if !selected {
		b.WriteString(th.Muted.Render("Aucune conversation"))
		return b.String()
	}
	fmt.Fprintf(&b, "Sentiment %+.2f\n%s\n", lm.Sentiment, sentimentBar(lm.Sentiment, metricsWidth-6))
	emotion := lm.Emotion
	if emotion == "" {
		emotion = "neutre"
	}
	b.WriteString("Émotion : " + th.Accent.Render(emotion) + "\n\n")
	if len(lm.KeyPoints) > 0 {
		b.WriteString(th.Muted.Render("Points clés") + "\n")
		for _, p := range lm.KeyPoints {
			b.WriteString("• " + p + "\n")
		}
		b.WriteString("\n")
	}
	for _, l := range lm.Log {
		b.WriteString(th.Muted.Render(l) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
