package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Credential policy for organizer accounts.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// ValidCredentials reports whether username and password satisfy the policy.
func ValidCredentials(username, password string) bool {
	return utf8.RuneCountInString(username) >= MinUsernameLength &&
		utf8.RuneCountInString(password) >= MinPasswordLength
}
