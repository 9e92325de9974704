package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsim-app/admin-console/internal/models"
)

// GetAdminProfile fetches the extended admin record by id.
func (c *Client) GetAdminProfile(ctx context.Context, token, adminID string) (*models.AdminProfile, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, validationErr("admin id is required")
	}

	var out struct {
		Success bool                `json:"success"`
		Admin   models.AdminProfile `json:"admin"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/admins/"+adminID, token, nil, &out, "failed to load profile"); err != nil {
		return nil, err
	}
	return &out.Admin, nil
}

// ChangePasswordParams are the inputs of a credential change.
type ChangePasswordParams struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword updates the signed-in admin's password.
func (c *Client) ChangePassword(ctx context.Context, token string, params ChangePasswordParams) (string, error) {
	if params.CurrentPassword == "" || params.NewPassword == "" || params.ConfirmPassword == "" {
		return "", validationErr("all fields are required")
	}
	if len(params.NewPassword) < minPasswordLength {
		return "", validationErr("password must be at least 6 characters long")
	}
	if params.NewPassword != params.ConfirmPassword {
		return "", validationErr("passwords do not match")
	}

	var env envelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/admin/change-password", token, params, &env, "failed to change password"); err != nil {
		return "", err
	}
	return env.Message, nil
}
