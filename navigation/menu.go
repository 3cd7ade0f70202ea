// Package navigation composes the role-gated sidebar, the route table and the
// role guard. Roles come from the stored session and are never verified
// server-side: everything here is UI affordance, not access control.
package navigation

import "auto-uc2-dashboard/models"

type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

// Item is a sidebar entry: either a direct Path or a collapsible list of Children.
type Item struct {
	Icon     string        `json:"icon"`
	Label    string        `json:"label"`
	Path     string        `json:"path,omitempty"`
	Roles    []models.Role `json:"-"`
	Children []Link        `json:"children,omitempty"`
}

type Group struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

var (
	everyone = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleUser, models.RoleClient}
	sales    = []models.Role{models.RoleManager, models.RoleUser}
	admins   = []models.Role{models.RoleSuperAdmin, models.RoleAdmin}
	clients  = []models.Role{models.RoleClient}
)

var menu = []Group{
	{Title: "Navigation", Items: []Item{
		{Icon: "layout-dashboard", Label: "Tableau de bord", Path: "/dashboard", Roles: everyone},
		{Icon: "star", Label: "Accueil Public", Path: "/", Roles: everyone},
	}},
	{Title: "Espace Client", Items: []Item{
		{Icon: "car", Label: "Mes Véhicules", Roles: clients, Children: []Link{
			{Label: "Sauvegardés", Path: "/client/saved", Icon: "star"},
			{Label: "Recommandés", Path: "/client/recommended", Icon: "zap"},
			{Label: "Parcourir tout", Path: "/vehicles", Icon: "search"},
		}},
		{Icon: "message-square", Label: "Négociations", Roles: clients, Children: []Link{
			{Label: "En cours", Path: "/negotiations", Icon: "activity"},
			{Label: "Acceptées", Path: "/client/deals/won", Icon: "shield-check"},
			{Label: "Rejetées", Path: "/client/deals/lost", Icon: "x"},
		}},
		{Icon: "calendar", Label: "Rendez-vous", Path: "/client/appointments", Roles: clients},
		{Icon: "file-text", Label: "Contrats", Path: "/client/contracts", Roles: clients},
	}},
	{Title: "Opérations Ventes", Items: []Item{
		{Icon: "car", Label: "Flotte UC2", Roles: sales, Children: []Link{
			{Label: "Inventaire complet", Path: "/vehicles"},
			{Label: "Maintenance", Path: "/fleet/service", Icon: "sliders"},
		}},
		{Icon: "users", Label: "Clients CRM", Roles: sales, Children: []Link{
			{Label: "Répertoire", Path: "/clients"},
			{Label: "Notes & Suivi", Path: "/clients/activity"},
			{Label: "Segmentation", Path: "/clients/segments", Icon: "target"},
		}},
		{Icon: "message-square", Label: "Deals & Pipeline", Roles: sales, Children: []Link{
			{Label: "Active Chats", Path: "/negotiations"},
			{Label: "Offres en attente", Path: "/deals/pending", Icon: "dollar-sign"},
			{Label: "Clôturés", Path: "/deals/closed", Icon: "shield-check"},
		}},
		{Icon: "pie-chart", Label: "Analytics", Path: "/analytics", Roles: sales},
	}},
	{Title: "Infrastructure", Items: []Item{
		{Icon: "activity", Label: "Système", Roles: admins, Children: []Link{
			{Label: "Santé (Health)", Path: "/admin/health"},
			{Label: "Métriques", Path: "/admin/metrics"},
			{Label: "Logs Audit", Path: "/admin/logs"},
			{Label: "Configuration", Path: "/admin/config"},
		}},
		{Icon: "users", Label: "Utilisateurs", Path: "/admin/users", Roles: admins},
		{Icon: "building-2", Label: "Réseau Agences", Path: "/admin/agencies", Roles: admins},
		{Icon: "qr-code", Label: "Bornes Kiosks", Path: "/admin/kiosks", Roles: admins},
	}},
	{Title: "Cybersécurité", Items: []Item{
		{Icon: "shield-alert", Label: "War Room", Path: "/admin/security", Roles: []models.Role{models.RoleSuperAdmin}},
		{Icon: "refresh-ccw", Label: "Data Recovery", Path: "/admin/sync", Roles: []models.Role{models.RoleSuperAdmin}},
	}},
	{Title: "Identité", Items: []Item{
		{Icon: "user-circle", Label: "Mon Profil", Roles: everyone, Children: []Link{
			{Label: "Gérer Profil", Path: "/profile"},
			{Label: "Sécurité MFA", Path: "/profile/security", Icon: "shield-check"},
			{Label: "Confidentialité", Path: "/profile/gdpr", Icon: "file-text"},
		}},
	}},
}

// Menu returns the full declarative tree.
func Menu() []Group {
	out := make([]Group, len(menu))
	for i, g := range menu {
		out[i] = Group{Title: g.Title, Items: append([]Item(nil), g.Items...)}
	}
	return out
}

// Compose filters tree to the items role may see. Groups left empty are dropped.
func Compose(tree []Group, role models.Role) []Group {
	var out []Group
	for _, g := range tree {
		var items []Item
		for _, it := range g.Items {
			if role.In(it.Roles...) {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			out = append(out, Group{Title: g.Title, Items: items})
		}
	}
	return out
}
