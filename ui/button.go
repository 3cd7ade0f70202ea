package ui

type Variant string

const (
	Primary   Variant = "primary"
	Secondary Variant = "secondary"
	Ghost     Variant = "ghost"
	Danger    Variant = "danger"
	Outline   Variant = "outline"
	Emerald   Variant = "emerald"
)

type Button struct {
	Label    string
	Variant  Variant
	Loading  bool
	Disabled bool
}

// Enabled is false while loading.
func (b Button) Enabled() bool {
	return !b.Loading && !b.Disabled
}

func (b Button) Render(t Theme) string {
	st, ok := t.Buttons[b.Variant]
	if !ok {
		st = t.Buttons[Primary]
	}
	label := b.Label
	if b.Loading {
		label = "…"
	}
	if !b.Enabled() {
		st = st.Faint(true)
	}
	return st.Render(label)
}
