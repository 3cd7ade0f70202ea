package navigation

import (
	"strings"

	"auto-uc2-dashboard/models"
)

const (
	LoginPath   = "/login"
	HomePath    = "/dashboard"
	LandingPath = "/"
)

type route struct {
	pattern string
	roles   []models.Role // nil means any signed-in user
}

var routeTable = []route{
	{pattern: "/dashboard"},
	{pattern: "/vehicles"},
	{pattern: "/vehicles/:id"},
	{pattern: "/negotiations"},
	{pattern: "/clients"},
	{pattern: "/profile"},
	{pattern: "/profile/security"},
	{pattern: "/profile/gdpr"},

	{pattern: "/client/saved", roles: clients},
	{pattern: "/client/appointments", roles: clients},
	{pattern: "/client/contracts", roles: clients},
	{pattern: "/client/deals/won", roles: clients},
	{pattern: "/client/deals/lost", roles: clients},

	{pattern: "/vehicles/new", roles: sales},
	{pattern: "/fleet/media", roles: sales},
	{pattern: "/fleet/service", roles: sales},
	{pattern: "/clients/activity", roles: sales},
	{pattern: "/clients/segments", roles: sales},
	{pattern: "/deals/pending", roles: sales},
	{pattern: "/deals/closed", roles: sales},
	{pattern: "/analytics", roles: sales},

	{pattern: "/admin/health", roles: admins},
	{pattern: "/admin/metrics", roles: admins},
	{pattern: "/admin/logs", roles: admins},
	{pattern: "/admin/config", roles: admins},
	{pattern: "/admin/users", roles: admins},
	{pattern: "/admin/agencies", roles: admins},
	{pattern: "/admin/kiosks", roles: admins},

	{pattern: "/admin/security"},
	{pattern: "/admin/sync"},
}

// Resolve maps a requested path to the path that should be shown. redirect is
// true when it differs from path.
func Resolve(role models.Role, signedIn bool, path string) (target string, redirect bool) {
	path = normalize(path)
	switch {
	case path == LandingPath:
		return path, false
	case path == LoginPath:
		if signedIn {
			return HomePath, true
		}
		return path, false
	case !signedIn:
		return LoginPath, true
	}
	for _, r := range routeTable {
		if !match(r.pattern, path) {
			continue
		}
		if r.roles == nil || role.In(r.roles...) {
			return path, false
		}
	}
	return HomePath, true
}

// Routes lists the patterns role can open.
func Routes(role models.Role) []string {
	out := []string{LandingPath}
	for _, r := range routeTable {
		if r.roles == nil || role.In(r.roles...) {
			out = append(out, r.pattern)
		}
	}
	return out
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return LandingPath
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func match(pattern, path string) bool {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
