package navigation

import (
	"sync"

	"auto-uc2-dashboard/models"
)

// Sidebar holds the collapsible state of the rail and of each submenu.
type Sidebar struct {
	mu       sync.Mutex
	expanded bool
	open     map[string]bool
}

func NewSidebar() *Sidebar {
	return &Sidebar{open: make(map[string]bool)}
}

func (s *Sidebar) SetExpanded(v bool) {
	s.mu.Lock()
	s.expanded = v
	if !v {
		clear(s.open)
	}
	s.mu.Unlock()
}

// Toggle opens or closes the submenu labelled label and reports the new state.
func (s *Sidebar) Toggle(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[label] = !s.open[label]
	return s.open[label]
}

type LinkView struct {
	Link
	Active bool `json:"active"`
}

type ItemView struct {
	Icon     string     `json:"icon"`
	Label    string     `json:"label"`
	Path     string     `json:"path,omitempty"`
	Active   bool       `json:"active"`
	Open     bool       `json:"open"`
	Children []LinkView `json:"children,omitempty"`
}

type GroupView struct {
	Title string     `json:"title"`
	Items []ItemView `json:"items"`
}

type View struct {
	Expanded bool        `json:"expanded"`
	Groups   []GroupView `json:"groups"`
}

// Render composes the menu for role and marks what is active at current.
func (s *Sidebar) Render(role models.Role, current string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Expanded: s.expanded}
	for _, g := range Compose(menu, role) {
		gv := GroupView{Title: g.Title}
		for _, it := range g.Items {
			iv := ItemView{Icon: it.Icon, Label: it.Label, Path: it.Path, Open: s.open[it.Label]}
			iv.Active = it.Path != "" && it.Path == current
			for _, c := range it.Children {
				lv := LinkView{Link: c, Active: c.Path == current}
				iv.Active = iv.Active || lv.Active
				iv.Children = append(iv.Children, lv)
			}
			gv.Items = append(gv.Items, iv)
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}
