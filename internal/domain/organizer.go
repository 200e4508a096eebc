package domain

import "time"

// Organizer is an account that issues and sends tickets for one group.
type Organizer struct {
	ID           string
	Username     string
	PasswordHash string
	Group        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
