// Package policy decides, for every (session, route) pair, whether the
// route may be shown and where to send the client otherwise. The rule
// list below is the single authority; pages never re-derive it.
package policy

import (
	"strings"

	"github.com/kotamart/storefront-backend/internal/session"
	"github.com/kotamart/storefront-backend/internal/users"
)

// The page-route surface.
const (
	RouteLogin              = "/login"
	RouteVerifyEmail        = "/verify-email"
	RouteCustomerInfo       = "/customer-info"
	RouteHome               = "/"
	RouteOrders             = "/orders"
	RouteCart               = "/cart"
	RouteProfile            = "/profile"
	RouteStoreInfo          = "/store-info"
	RouteDashboard          = "/dashboard"
	RouteDashboardOrders    = "/dashboard/orders"
	RouteDashboardProducts  = "/dashboard/products"
	RouteDashboardStoreInfo = "/dashboard/store-info"
)

// Routes lists every known page route.
var Routes = []string{
	RouteLogin,
	RouteVerifyEmail,
	RouteCustomerInfo,
	RouteHome,
	RouteOrders,
	RouteCart,
	RouteProfile,
	RouteStoreInfo,
	RouteDashboard,
	RouteDashboardOrders,
	RouteDashboardProducts,
	RouteDashboardStoreInfo,
}

// Decide returns the route the client must be sent to, if any. Rules
// are evaluated strictly in order; the first match wins:
//
//  1. session loading: stay put (the guard shows a loading state)
//  2. no identity: to /login, except on /login and /verify-email
//     (verification links must work without a session)
//  3. unverified customer: to /verify-email
//  4. on /login or /verify-email with a fully-qualified session: to
//     the role home
//  5. owner off the dashboard: to /dashboard
//  6. customer: incomplete profile to /customer-info, completed
//     profile off /customer-info, dashboard routes to /
func Decide(s session.Session, route string) (string, bool) {
	if s.Loading {
		return "", false
	}

	if !s.Authenticated() {
		if route == RouteLogin || route == RouteVerifyEmail {
			return "", false
		}
		return RouteLogin, true
	}

	// Identity present but profile still unknown: treat like loading
	// rather than guessing a role.
	if s.User == nil {
		return "", false
	}

	if s.Role() == users.RoleCustomer && !s.EmailVerified() {
		if route != RouteVerifyEmail {
			return RouteVerifyEmail, true
		}
		return "", false
	}

	if route == RouteLogin || route == RouteVerifyEmail {
		return roleHome(s), true
	}

	if s.Role() == users.RoleOwner {
		if !isDashboard(route) {
			return RouteDashboard, true
		}
		return "", false
	}

	if s.Role() == users.RoleCustomer {
		if !s.InfoComplete() && route != RouteCustomerInfo {
			return RouteCustomerInfo, true
		}
		if s.InfoComplete() && route == RouteCustomerInfo {
			return RouteHome, true
		}
		if isDashboard(route) {
			return RouteHome, true
		}
	}

	return "", false
}

func roleHome(s session.Session) string {
	switch {
	case s.Role() == users.RoleOwner:
		return RouteDashboard
	case !s.InfoComplete():
		return RouteCustomerInfo
	default:
		return RouteHome
	}
}

func isDashboard(route string) bool {
	return route == RouteDashboard || strings.HasPrefix(route, RouteDashboard+"/")
}
