package postgres

import (
	"context"

	"casthub/internal/domain/entity"
	domainerrors "casthub/internal/domain/errors"
	"casthub/internal/domain/repository"
	"casthub/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// planRepository implements the repository.PlanRepository interface using GORM.
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository is the constructor for planRepository.
func NewPlanRepository(db *gorm.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

// FindPlanByName retrieves a plan by name. The 'ORDER BY id' makes the pick
// deterministic should seeding ever leave duplicate names behind.
func (repo *planRepository) FindPlanByName(ctx context.Context, name string) (*entity.Plan, error) {
	var planM model.PlanModel
	err := repo.db.WithContext(ctx).
		Where("name = ?", name).
		Order("id").
		First(&planM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPlanNotFound
		}

		return nil, errors.Wrap(err, "failed to find plan by name")
	}

	return toPlanDomain(&planM), nil
}

// CreateSubscription persists a new subscription row for a user.
func (repo *planRepository) CreateSubscription(ctx context.Context, sub *entity.Subscription) error {
	subM := fromSubscriptionDomain(sub)

	if err := repo.db.WithContext(ctx).Create(subM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create subscription")
	}

	sub.ID = subM.ID
	sub.CreatedAt = subM.CreatedAt

	return nil
}

// toPlanDomain converts a GORM PlanModel to a domain Plan entity.
func toPlanDomain(data *model.PlanModel) *entity.Plan {
	if data == nil {
		return nil
	}

	return &entity.Plan{
		ID:         data.ID,
		Name:       data.Name,
		PriceCents: data.PriceCents,
		Features:   data.Features,
		CreatedAt:  data.CreatedAt,
	}
}

// fromSubscriptionDomain converts a domain Subscription entity to a GORM SubscriptionModel.
func fromSubscriptionDomain(data *entity.Subscription) *model.SubscriptionModel {
	if data == nil {
		return nil
	}

	return &model.SubscriptionModel{
		ID:          data.ID,
		UserID:      data.UserID,
		PlanID:      data.PlanID,
		Status:      data.Status,
		PeriodStart: data.PeriodStart,
		PeriodEnd:   data.PeriodEnd,
		CreatedAt:   data.CreatedAt,
	}
}
