// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"casthub/internal/domain/entity"
)

// ErrPlanNotFound is returned when no plan matches the requested name.
var ErrPlanNotFound = errors.New("plan not found")

// PlanRepository defines the operations for plan and subscription persistence.
type PlanRepository interface {
	// FindPlanByName retrieves a plan by its unique name.
	// When several rows share a name the lowest id wins.
	FindPlanByName(ctx context.Context, name string) (*entity.Plan, error)

	// CreateSubscription persists a new subscription row for a user.
	CreateSubscription(ctx context.Context, sub *entity.Subscription) error
}
