package domain

import "time"

// Role is a named permission bundle. Static reference data seeded at
// startup; mutation is an administrative concern outside the auth core.
type Role struct {
	ID          string
	Name        string
	Description string
	Permissions []string // resolved permission names
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is a named capability string, e.g. "users.manage".
type Permission struct {
	ID          string
	Name        string
	Description string
}
