package dto

import "time"

// RegisterRequest payload.
type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// OrganizerResponse describes the authenticated organizer.
type OrganizerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Group    string `json:"group"`
}

// AuthResponse returns token data.
type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Organizer OrganizerResponse `json:"organizer"`
}
