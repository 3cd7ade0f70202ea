package ui

import "sync"

// Confirm is a single pending yes/no question guarding a destructive action.
type Confirm struct {
	mu      sync.Mutex
	title   string
	message string
	onYes   func()
	open    bool
}

// Ask opens the modal. A question already pending is replaced.
func (c *Confirm) Ask(title, message string, onYes func()) {
	c.mu.Lock()
	c.title, c.message, c.onYes, c.open = title, message, onYes, true
	c.mu.Unlock()
}

func (c *Confirm) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Resolve closes the modal and runs the action when yes.
func (c *Confirm) Resolve(yes bool) {
	c.mu.Lock()
	fn := c.onYes
	wasOpen := c.open
	c.open, c.onYes = false, nil
	c.mu.Unlock()
	if wasOpen && yes && fn != nil {
		fn()
	}
}

func (c *Confirm) Render(th Theme) string {
	c.mu.Lock()
	title, msg, open := c.title, c.message, c.open
	c.mu.Unlock()
	if !open {
		return ""
	}
	yes := Button{Label: "Supprimer (y)", Variant: Danger}.Render(th)
	no := Button{Label: "Annuler (n)", Variant: Ghost}.Render(th)
	return th.Modal.Render(th.PanelTitle.Render(title) + "\n\n" + msg + "\n\n" + yes + "  " + no)
}
