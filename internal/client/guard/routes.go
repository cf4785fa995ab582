package guard

import (
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
)

// Route paths.
const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathContracts = "/contracts"
	PathContract  = "/contracts/:id"
	PathClients   = "/clients"
	PathUsers     = "/users"
	PathUserNew   = "/users/new"
)

// Route is a navigation target. Path segments starting with ':' capture
// parameters.
type Route struct {
	Name         string
	Path         string
	Public       bool
	AllowedRoles []models.Role
}

// Match is a resolved route with its captured parameters.
type Match struct {
	Route  Route
	Params map[string]string
}

type Router struct {
	routes []Route
}

// NewRouter registers routes; earlier routes win on ambiguous paths.
func NewRouter(routes ...Route) *Router {
	return &Router{routes: routes}
}

var (
	staffRoles = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff}
	adminRoles = []models.Role{models.RoleSuperAdmin, models.RoleAdmin}
)

// DefaultRouter is the application's route table.
func DefaultRouter() *Router {
	return NewRouter(
		Route{Name: "home", Path: PathHome},
		Route{Name: "login", Path: PathLogin, Public: true},
		Route{Name: "dashboard", Path: PathDashboard, AllowedRoles: staffRoles},
		Route{Name: "contracts", Path: PathContracts},
		Route{Name: "contract", Path: PathContract},
		Route{Name: "clients", Path: PathClients, AllowedRoles: staffRoles},
		Route{Name: "user-new", Path: PathUserNew, AllowedRoles: adminRoles},
		Route{Name: "users", Path: PathUsers, AllowedRoles: adminRoles},
	)
}

// Resolve matches location (query string ignored) against the table.
func (r *Router) Resolve(location string) (Match, bool) {
	path, _, _ := strings.Cut(location, "?")
	got := splitPath(path)

	for _, route := range r.routes {
		want := splitPath(route.Path)
		if len(want) != len(got) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range want {
			if strings.HasPrefix(seg, ":") {
				if got[i] == "" {
					matched = false
					break
				}
				params[seg[1:]] = got[i]
				continue
			}
			if seg != got[i] {
				matched = false
				break
			}
		}
		if matched {
			return Match{Route: route, Params: params}, true
		}
	}
	return Match{}, false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
