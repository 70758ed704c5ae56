package common

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "portal_session"

	// DefaultRole is assigned to every self-registered account.
	DefaultRole = "User"

	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)
