package model

// Principal is the authenticated caller as asserted by a verified token.
type Principal struct {
	UserID int64
	Email  string
	// Admin grants access to operator endpoints (scheduler runs, merchant rules).
	Admin bool
}
