// internal/app/features/authapi/types.go
package authapi

import "github.com/dalemusser/festivo/internal/domain/models"

type signupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CollegeID string `json:"collegeId"`
	Year      string `json:"year"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string      `json:"token,omitempty"`
	ExpiresIn int64       `json:"expires_in,omitempty"`
	User      models.User `json:"user"`
}
