// Package routes is the client's route table and the role router that maps an
// account role to its landing page.
package routes

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
)

const (
	Home              = "/"
	Login             = "/login"
	Register          = "/register"
	RegisterPublisher = "/register/publisher"
	RegisterPromoter  = "/register/promoter"
	UserHome          = "/dashboard"
	PublisherHome     = "/publisher/dashboard"
	PromoterHome      = "/promoter/dashboard"
	AdminHome         = "/admin/dashboard"
	Unauthorized      = "/unauthorized"
	Account           = "/account"
)

// Access says who may see a route.
type Access int

const (
	// Public routes render for everyone.
	Public Access = iota
	// PublicOnly routes render only for anonymous visitors; signed-in users are
	// sent to their home page.
	PublicOnly
	// Protected routes require a session, optionally with specific roles.
	Protected
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case PublicOnly:
		return "public-only"
	case Protected:
		return "protected"
	default:
		return "unknown"
	}
}

// Route is one entry of the route table. An empty Roles list on a protected
// route admits any signed-in user.
type Route struct {
	Path   string
	Title  string
	Access Access
	Roles  []models.Role
}

var table = []Route{
	{Path: Home, Title: "Welcome", Access: Public},
	{Path: Unauthorized, Title: "Access denied", Access: Public},
	{Path: Login, Title: "Sign in", Access: PublicOnly},
	{Path: Register, Title: "Create an account", Access: PublicOnly},
	{Path: RegisterPublisher, Title: "Register as a publisher", Access: PublicOnly},
	{Path: RegisterPromoter, Title: "Register as a promoter", Access: PublicOnly},
	{Path: Account, Title: "Account", Access: Protected},
	{Path: UserHome, Title: "Cashback dashboard", Access: Protected, Roles: []models.Role{models.RoleUser, models.RoleAdmin, models.RoleUnknown}},
	{Path: PublisherHome, Title: "Publisher dashboard", Access: Protected, Roles: []models.Role{models.RolePublisher}},
	{Path: PromoterHome, Title: "Promoter dashboard", Access: Protected, Roles: []models.Role{models.RolePromoter}},
	{Path: AdminHome, Title: "Admin dashboard", Access: Protected, Roles: []models.Role{models.RoleAdmin}},
}

// All returns a copy of the route table.
func All() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Lookup finds the route for path. Trailing slashes are ignored.
func Lookup(path string) (Route, bool) {
	path = Normalize(path)
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Normalize trims whitespace and trailing slashes and adds the leading one.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimRight(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Allows reports whether role may open a protected route.
func (r Route) Allows(role models.Role) bool {
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

// DestinationFor is the landing page after sign-in for role. Admin and
// unrecognised roles land on the user dashboard, whose entry admits them.
func DestinationFor(role models.Role) string {
	switch role {
	case models.RolePublisher:
		return PublisherHome
	case models.RolePromoter:
		return PromoterHome
	default:
		return UserHome
	}
}

// RegistrationPath is the sign-up page for role.
func RegistrationPath(role models.Role) string {
	switch role {
	case models.RolePublisher:
		return RegisterPublisher
	case models.RolePromoter:
		return RegisterPromoter
	default:
		return Register
	}
}

// RoleForRegistration is the inverse of RegistrationPath.
func RoleForRegistration(path string) (models.Role, bool) {
	switch Normalize(path) {
	case Register:
		return models.RoleUser, true
	case RegisterPublisher:
		return models.RolePublisher, true
	case RegisterPromoter:
		return models.RolePromoter, true
	default:
		return models.RoleUnknown, false
	}
}
