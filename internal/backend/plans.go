package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsim-app/admin-console/internal/models"
)

// PlanParams are the inputs for creating or updating a subscription plan.
type PlanParams struct {
	PlanName             string   `json:"planName"`
	PlanType             string   `json:"planType"`
	Price                float64  `json:"price"`
	Duration             int      `json:"duration"`
	SimulationsLimit     int      `json:"simulationsLimit"`
	SimulationsUnlimited bool     `json:"simulationsUnlimited"`
	Features             []string `json:"features"`
	ActivePlan           bool     `json:"activePlan"`
}

// normalizePlanParams validates plan input and applies the sentinel
// rules: forever plans always submit the fixed duration, unlimited plans
// always submit the fixed simulations limit.
func normalizePlanParams(params PlanParams) (PlanParams, error) {
	params.PlanName = strings.TrimSpace(params.PlanName)
	if params.PlanName == "" {
		return PlanParams{}, validationErr("plan name is required")
	}
	if !models.ValidPlanType(params.PlanType) {
		return PlanParams{}, validationErr("invalid plan type")
	}
	if params.Price < 0 {
		return PlanParams{}, validationErr("price cannot be negative")
	}

	features := make([]string, 0, len(params.Features))
	for _, f := range params.Features {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	if len(features) == 0 {
		return PlanParams{}, validationErr("at least one feature is required")
	}
	params.Features = features

	if params.PlanType == models.PlanTypeForever {
		params.Duration = models.ForeverDuration
	} else if params.Duration <= 0 {
		return PlanParams{}, validationErr("duration must be greater than 0")
	}

	if params.SimulationsUnlimited {
		params.SimulationsLimit = models.UnlimitedSimulations
	} else if params.SimulationsLimit <= 0 {
		return PlanParams{}, validationErr("simulations limit must be greater than 0")
	}

	return params, nil
}

// GetSubscriptions fetches all plan templates.
func (c *Client) GetSubscriptions(ctx context.Context, token string) ([]models.Plan, error) {
	var out struct {
		Success       bool          `json:"success"`
		Subscriptions []models.Plan `json:"subscriptions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/subscriptions", token, nil, &out, "failed to load subscription plans"); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

// GetSubscriptionByID fetches a single plan template.
func (c *Client) GetSubscriptionByID(ctx context.Context, token, id string) (*models.Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationErr("plan id is required")
	}

	var out struct {
		Success      bool        `json:"success"`
		Subscription models.Plan `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/subscriptions/"+id, token, nil, &out, "failed to load subscription plan"); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

// CreateSubscription creates a new plan template.
func (c *Client) CreateSubscription(ctx context.Context, token string, params PlanParams) (*models.Plan, error) {
	normalized, errValidate := normalizePlanParams(params)
	if errValidate != nil {
		return nil, errValidate
	}

	var out struct {
		Success      bool        `json:"success"`
		Subscription models.Plan `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/subscriptions", token, normalized, &out, "failed to create subscription plan"); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

// UpdateSubscription replaces a plan template's fields.
func (c *Client) UpdateSubscription(ctx context.Context, token, id string, params PlanParams) (*models.Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationErr("plan id is required")
	}
	normalized, errValidate := normalizePlanParams(params)
	if errValidate != nil {
		return nil, errValidate
	}

	var out struct {
		Success      bool        `json:"success"`
		Subscription models.Plan `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/subscriptions/"+id, token, normalized, &out, "failed to update subscription plan"); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

// DeleteSubscription removes a plan template.
func (c *Client) DeleteSubscription(ctx context.Context, token, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validationErr("plan id is required")
	}

	var env envelope
	return c.do(ctx, http.MethodDelete, "/api/v1/subscriptions/"+id, token, nil, &env, "failed to delete subscription plan")
}
