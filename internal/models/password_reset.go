package models

import "time"

// ResetPasswordToken is a single-use password reset credential
type ResetPasswordToken struct {
	ID        int
	Token     string
	UserID    int
	CreatedAt time.Time
}

// ForgotPasswordRequest is the body of a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of a password reset confirmation
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PasswordResetEmail is the payload of the password reset e-mail task
type PasswordResetEmail struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	ResetURL string `json:"resetUrl"`
}
