// Package entity contains the core business objects of the project.
package entity

import "time"

// FreePlanName is the plan assigned to accounts created through OAuth signup.
const FreePlanName = "Free"

// SubscriptionStatusActive marks a subscription that currently entitles the user.
const SubscriptionStatusActive = "active"

// DefaultSubscriptionPeriod is the billing period granted on signup.
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

// Plan represents a subscription tier offered by the platform.
type Plan struct {
	ID         uint      // Internal plan id.
	Name       string    // Unique plan name, e.g. "Free", "Pro".
	PriceCents int       // Monthly price in cents. Zero for the free tier.
	Features   string    // Free-form feature description shown on the pricing page.
	CreatedAt  time.Time // Timestamp of when this plan was created.
}

// Subscription represents a user's active membership in a plan.
type Subscription struct {
	ID          uint      // Internal subscription id.
	UserID      uint      // The user holding the subscription.
	PlanID      uint      // The plan subscribed to.
	Status      string    // Subscription status, e.g. "active".
	PeriodStart time.Time // Start of the current billing period.
	PeriodEnd   time.Time // End of the current billing period.
	CreatedAt   time.Time // Timestamp of when the subscription was created.
}
