package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsim-app/admin-console/internal/models"
)

// GetUsers fetches all end-customer accounts with embedded subscriptions.
func (c *Client) GetUsers(ctx context.Context, token string) ([]models.User, error) {
	var out struct {
		Success bool          `json:"success"`
		Users   []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/users", token, nil, &out, "failed to load users"); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UpdateUserStatus blocks or unblocks a user account.
func (c *Client) UpdateUserStatus(ctx context.Context, token, userID string, isActive bool) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return validationErr("user id is required")
	}

	body := map[string]bool{"isActive": isActive}
	var env envelope
	return c.do(ctx, http.MethodPut, "/api/v1/admin/users/"+userID, token, body, &env, "failed to update user status")
}

// ExtendSubscription adds extraDays to a premium user's expiry. extraDays
// must be one of the offered day counts.
func (c *Client) ExtendSubscription(ctx context.Context, token, userID string, extraDays int) (*models.UserSubscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	if !models.ValidExtendDays(extraDays) {
		return nil, validationErr("unsupported extension length")
	}

	body := map[string]int{"extraDays": extraDays}
	var out struct {
		Success      bool                     `json:"success"`
		Subscription *models.UserSubscription `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/admin/users/"+userID+"/subscription/extend", token, body, &out, "failed to extend subscription"); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

// DowngradeSubscription reverts a premium user to free immediately.
func (c *Client) DowngradeSubscription(ctx context.Context, token, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", validationErr("user id is required")
	}

	var env envelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/admin/users/"+userID+"/subscription/downgrade", token, nil, &env, "failed to downgrade subscription"); err != nil {
		return "", err
	}
	return env.Message, nil
}

// CancelSubscription cancels a premium user's subscription immediately.
// It differs from downgrade only in backend-side bookkeeping.
func (c *Client) CancelSubscription(ctx context.Context, token, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", validationErr("user id is required")
	}

	var env envelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/admin/users/"+userID+"/subscription/cancel", token, nil, &env, "failed to cancel subscription"); err != nil {
		return "", err
	}
	return env.Message, nil
}
