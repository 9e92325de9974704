package models

import "time"

// User represents an end-customer account as returned by the FinSim backend.
type User struct {
	ID       string       `json:"_id"`               // Backend document ID.
	Name     string       `json:"name"`              // Display name.
	Email    string       `json:"email"`             // Email address.
	Verified bool         `json:"verified"`          // Email verification flag.
	IsActive bool         `json:"isActive"`          // Whether the account may sign in.
	Profile  *UserProfile `json:"profile,omitempty"` // Extended profile, absent for fresh accounts.
}

// UserProfile carries the profile document embedded in a user record. Only
// the fields this console reads are mapped; the backend sends many more.
type UserProfile struct {
	ID           string            `json:"_id"`                    // Profile document ID.
	UserID       string            `json:"userId"`                 // Owning user ID.
	FullName     string            `json:"fullName,omitempty"`     // Profile full name.
	Email        string            `json:"email,omitempty"`        // Contact email.
	Subscription *UserSubscription `json:"subscription,omitempty"` // Active subscription, nil for free users.
}

// UserSubscription is a user's assignment to a plan. It is only ever
// created by the end-user payment flow; the console mutates it through the
// extend/downgrade/cancel operations.
type UserSubscription struct {
	PlanID    string    `json:"planId"`    // Assigned plan ID.
	PlanName  string    `json:"planName"`  // Assigned plan name.
	StartedAt time.Time `json:"startedAt"` // Subscription start.
	ExpiresAt time.Time `json:"expiresAt"` // Subscription expiry.
	IsActive  bool      `json:"isActive"`  // Whether the subscription is live.
}

// Subscription tier labels shown in user tables.
const (
	TierPremium = "Premium"
	TierFree    = "Free"
)

// TierLabel derives the displayed subscription tier for a user. It is the
// single definition of the Premium/Free rule: a user is premium exactly
// when the embedded subscription exists and is active.
func TierLabel(u *User) string {
	if IsPremium(u) {
		return TierPremium
	}
	return TierFree
}

// IsPremium reports whether the user currently holds an active subscription.
func IsPremium(u *User) bool {
	if u == nil || u.Profile == nil || u.Profile.Subscription == nil {
		return false
	}
	return u.Profile.Subscription.IsActive
}

// ExtendDayChoices are the only day counts the console offers when
// extending a premium subscription (1, 3, 6 and 12 months).
var ExtendDayChoices = []int{30, 90, 180, 365}

// ValidExtendDays reports whether days is one of the offered extension
// choices.
func ValidExtendDays(days int) bool {
	for _, d := range ExtendDayChoices {
		if d == days {
			return true
		}
	}
	return false
}
