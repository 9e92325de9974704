package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsim-app/admin-console/internal/models"
)

// LoginResult carries a successful login response.
type LoginResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	Admin        models.Admin `json:"admin"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Login authenticates an admin against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationErr("email and password are required")
	}
	if !validEmail(email) {
		return nil, validationErr("invalid email address")
	}

	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/login/", "", body, &result, "login failed"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ForgotPassword starts the email-OTP reset flow for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return "", validationErr("invalid email address")
	}

	body := map[string]string{"email": email}
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/forgot-password", "", body, &env, "failed to send reset email"); err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResendOTP asks the backend to email a fresh one-time code.
func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return "", validationErr("invalid email address")
	}

	body := map[string]string{"email": email}
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/resend-otp", "", body, &env, "failed to resend OTP"); err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPasswordParams are the inputs of the final reset step.
type ResetPasswordParams struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword completes the reset flow. The OTP must be exactly six
// digits; nothing is sent otherwise.
func (c *Client) ResetPassword(ctx context.Context, params ResetPasswordParams) (string, error) {
	params.Email = strings.TrimSpace(params.Email)
	if params.Email == "" || params.OTP == "" || params.NewPassword == "" || params.ConfirmPassword == "" {
		return "", validationErr("all fields are required")
	}
	if !validEmail(params.Email) {
		return "", validationErr("invalid email address")
	}
	if !validOTP(params.OTP) {
		return "", validationErr("OTP must be 6 digits")
	}
	if len(params.NewPassword) < minPasswordLength {
		return "", validationErr("password must be at least 6 characters long")
	}
	if params.NewPassword != params.ConfirmPassword {
		return "", validationErr("passwords do not match")
	}

	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/reset-password", "", params, &env, "failed to reset password"); err != nil {
		return "", err
	}
	return env.Message, nil
}
