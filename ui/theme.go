// Package ui is the presentation kit shared by the terminal console and the
// browser push feed: toasts, table, confirm modal, button and the colour theme.
package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Info       lipgloss.Style
	Header     lipgloss.Style
	Cell       lipgloss.Style
	Selected   lipgloss.Style
	Modal      lipgloss.Style
	Buttons    map[Variant]lipgloss.Style
	Badges     map[string]lipgloss.Style
}

func DefaultTheme() Theme {
	text := lipgloss.Color("#ffffff")
	muted := lipgloss.Color("#71717a")
	emerald := lipgloss.Color("#10b981")
	red := lipgloss.Color("#ef4444")
	blue := lipgloss.Color("#2563eb")
	amber := lipgloss.Color("#f59e0b")
	zinc := lipgloss.Color("#27272a")
	surface := lipgloss.Color("#18181b")

	pad := lipgloss.NewStyle().Padding(0, 2).Bold(true)
	return Theme{
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(zinc).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Foreground(text).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Accent:     lipgloss.NewStyle().Foreground(emerald).Bold(true),
		Error:      lipgloss.NewStyle().Foreground(red).Bold(true),
		Success:    lipgloss.NewStyle().Foreground(emerald),
		Info:       lipgloss.NewStyle().Foreground(blue),
		Header:     lipgloss.NewStyle().Foreground(muted).Bold(true),
		Cell:       lipgloss.NewStyle().Foreground(text),
		Selected:   lipgloss.NewStyle().Foreground(text).Background(zinc),
		Modal: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3f3f46")).
			Background(surface).
			Padding(1, 3),
		Buttons: map[Variant]lipgloss.Style{
			Primary:   pad.Foreground(text).Background(blue),
			Secondary: pad.Foreground(text).Background(zinc),
			Ghost:     pad.Foreground(muted),
			Danger:    pad.Foreground(red).Background(lipgloss.Color("#2a1215")),
			Outline:   pad.Foreground(lipgloss.Color("#d4d4d8")).Border(lipgloss.NormalBorder()),
			Emerald:   pad.Foreground(text).Background(lipgloss.Color("#002b1f")),
		},
		Badges: map[string]lipgloss.Style{
			"success": lipgloss.NewStyle().Foreground(emerald),
			"warning": lipgloss.NewStyle().Foreground(amber),
			"error":   lipgloss.NewStyle().Foreground(red),
			"info":    lipgloss.NewStyle().Foreground(blue),
			"neutral": lipgloss.NewStyle().Foreground(muted),
		},
	}
}

// Badge renders a status label in the tone of variant; unknown tones are neutral.
func (t Theme) Badge(variant, label string) string {
	st, ok := t.Badges[variant]
	if !ok {
		st = t.Badges["neutral"]
	}
	return st.Render(label)
}
