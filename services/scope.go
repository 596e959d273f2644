package services

// Scope carries the caller identity and company selection for one request.
// The system this replaces kept these in mutable session state; here every
// service operation receives the scope explicitly.
type Scope struct {
	Username       string
	TechnicianName string
	Role           string
	CompanyID      *uint // nil when no company was selected at login
}

// IsAdmin reports whether the caller holds the admin role
func (s Scope) IsAdmin() bool {
	return s.Role == "admin"
}
