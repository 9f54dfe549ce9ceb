package model

import "time"

// SubscriptionStatus mirrors the payment processor's subscription state.
type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// User is a registered learner.
type User struct {
	ID                    int                `json:"id"`
	Email                 string             `json:"email"`
	PasswordHash          string             `json:"-"`
	FirstName             string             `json:"first_name"`
	LastName              string             `json:"last_name"`
	Specialization        string             `json:"specialization"`
	ProfileImageURL       string             `json:"profile_image_url,omitempty"`
	StripeCustomerID      *string            `json:"-"`
	StripeSubscriptionID  *string            `json:"-"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status"`
	SubscriptionPlan      *string            `json:"subscription_plan,omitempty"`
	SubscriptionExpiresAt *time.Time         `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// HasPremium reports whether the user's subscription unlocks premium modules at now.
func (u *User) HasPremium(now time.Time) bool {
	switch u.SubscriptionStatus {
	case SubscriptionActive, SubscriptionTrialing:
	default:
		return false
	}
	return u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.After(now)
}

// SubscriptionUpdate carries the fields a billing event may change.
type SubscriptionUpdate struct {
	SubscriptionID string
	Status         SubscriptionStatus
	PlanID         string
	ExpiresAt      *time.Time
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
}

// LoginRequest is the payload for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// LoginResponse is returned after successful login or registration.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateProfileRequest patches profile fields; nil fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName      *string `json:"first_name" binding:"omitempty,max=100"`
	LastName       *string `json:"last_name" binding:"omitempty,max=100"`
	Specialization *string `json:"specialization" binding:"omitempty,max=100"`
}
