// internal/domain/models/authmethods.go
package models

// Auth methods stored on User.AuthMethod.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// IsValidAuthMethod checks if a value is a supported auth method.
func IsValidAuthMethod(value string) bool {
	return value == AuthMethodPassword || value == AuthMethodGoogle
}
