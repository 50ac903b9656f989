package access

import (
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/models"
)

// Action is what the presentation layer should do with a request.
type Action int

const (
	Render Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "render"
}

// Decision is the outcome of a role check.
type Decision struct {
	Action   Action
	Location string
}

func render() Decision { return Decision{Action: Render} }
func redirectTo(loc string) Decision { return Decision{Action: Redirect, Location: loc} }

// areaRoutes maps each role to its dashboard area.
var areaRoutes = map[models.Role]string{
	models.RoleAdmin:    "/dashboard/admin",
	models.RoleInvestor: "/dashboard/investor",
	models.RoleStartup:  "/dashboard/startup",
	models.RoleUser:     "/dashboard/user",
}

// AreaPath returns the dashboard path for role, if the role has one.
func AreaPath(role models.Role) (string, bool) {
	p, ok := areaRoutes[role]
	return p, ok
}

// RoleRouter decides where a session belongs.
type RoleRouter struct {
	signInPath       string
	unauthorizedPath string
}

// NewRoleRouter returns a router; empty paths take the package defaults.
func NewRoleRouter(signInPath, unauthorizedPath string) *RoleRouter {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	if unauthorizedPath == "" {
		unauthorizedPath = DefaultUnauthorizedPath
	}
	return &RoleRouter{signInPath: signInPath, unauthorizedPath: unauthorizedPath}
}

// Authorize checks session against the role an area requires. A nil session
// goes to sign-in, a mismatched role to the unauthorized page.
func (rr *RoleRouter) Authorize(session *auth.Claims, required models.Role) Decision {
	if session == nil {
		return redirectTo(rr.signInPath)
	}
	if session.Role != required {
		return redirectTo(rr.unauthorizedPath)
	}
	return render()
}

// Landing sends an authenticated session to its own area. Sessions without
// a role, or with a role missing from the area table, fall through to the
// default landing content.
func (rr *RoleRouter) Landing(session *auth.Claims) Decision {
	if session == nil {
		return render()
	}
	if p, ok := AreaPath(session.Role); ok {
		return redirectTo(p)
	}
	return render()
}
