package models

import (
	"strconv"
	"time"
)

// Plan types accepted by the backend.
const (
	PlanTypeMonthly = "monthly"
	PlanTypeYearly  = "yearly"
	PlanTypeForever = "forever"
)

// ForeverDuration is the day count submitted for forever plans regardless
// of any previously selected finite duration.
const ForeverDuration = 36500

// UnlimitedSimulations is the sentinel simulations limit submitted when a
// plan grants unlimited simulations.
const UnlimitedSimulations = 999999

// Plan represents a purchasable subscription plan template.
type Plan struct {
	ID                   string    `json:"_id"`                  // Backend document ID.
	PlanName             string    `json:"planName"`             // Display name.
	PlanType             string    `json:"planType"`             // monthly, yearly or forever.
	Price                float64   `json:"price"`                // Price per billing period.
	Duration             int       `json:"duration"`             // Duration in days.
	SimulationsLimit     int       `json:"simulationsLimit"`     // Simulation allowance, UnlimitedSimulations when unlimited.
	SimulationsUnlimited bool      `json:"simulationsUnlimited"` // Whether simulations are unlimited.
	Features             []string  `json:"features"`             // Marketing feature lines.
	ActivePlan           bool      `json:"activePlan"`           // Whether the plan is offered to new buyers.
	IsActive             bool      `json:"isActive"`             // Backend-side enabled flag.
	CreatedAt            time.Time `json:"createdAt"`            // Creation timestamp.
	UpdatedAt            time.Time `json:"updatedAt"`            // Last update timestamp.
}

// ValidPlanType reports whether t is a plan type the backend accepts.
func ValidPlanType(t string) bool {
	switch t {
	case PlanTypeMonthly, PlanTypeYearly, PlanTypeForever:
		return true
	}
	return false
}

// DurationLabel renders a plan duration for display, collapsing the
// forever sentinel.
func DurationLabel(days int) string {
	if days == ForeverDuration {
		return "Forever"
	}
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
