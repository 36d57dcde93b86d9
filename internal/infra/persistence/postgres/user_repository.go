// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"casthub/internal/domain/entity"
	domainerrors "casthub/internal/domain/errors"
	"casthub/internal/domain/repository"
	"casthub/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByProvider retrieves the identity attached to an OAuth provider subject.
func (repo *userRepository) FindByProvider(ctx context.Context, provider entity.ProviderType, providerID string) (*entity.UserIdentity, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("oauth_provider = ? AND oauth_id = ?", provider.String(), providerID).
		First(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by provider")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single identity by its primary email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.UserIdentity, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// FindByUUID retrieves a single identity by its public uuid.
func (repo *userRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("uuid = ?", id).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by uuid")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new identity. A uniqueness violation surfaces as
// ErrUserAlreadyExists so the caller can tell a lost insert race from a
// plain database failure.
func (repo *userRepository) Create(ctx context.Context, user *entity.UserIdentity) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		return classifyUserWriteError(err, domainerrors.ErrUserCreationFailed, "failed to create user")
	}

	// Update the entity with the generated id and timestamps.
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update modifies an existing identity in the storage.
func (repo *userRepository) Update(ctx context.Context, user *entity.UserIdentity) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Save(userM).Error; err != nil {
		return classifyUserWriteError(err, domainerrors.ErrUserUpdateFailed, "failed to update user")
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// classifyUserWriteError maps a failed insert or save onto domain errors. A
// uniqueness violation becomes ErrUserAlreadyExists so the reconcile replay
// can distinguish a lost insert race from a store outage.
func classifyUserWriteError(err error, onMissingField *domainerrors.BaseError, action string) error {
	if isUniqueConstraintViolation(err) {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("identity already exists")
	}
	if isNotNullConstraintViolation(err) {
		return onMissingField.WrapMessage("missing required identity information")
	}

	return domainerrors.NewDatabaseExecuteError(err, action)
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain UserIdentity entity.
func toUserDomain(data *model.UserModel) *entity.UserIdentity {
	if data == nil {
		return nil
	}

	return &entity.UserIdentity{
		ID:           data.ID,
		UUID:         data.UUID,
		Email:        derefString(data.Email),
		DisplayName:  data.DisplayName,
		AvatarURL:    data.AvatarURL,
		StreamKey:    data.StreamKey,
		Provider:     entity.ProviderType(derefString(data.OAuthProvider)),
		ProviderID:   derefString(data.OAuthID),
		OAuthEmail:   data.OAuthEmail,
		PasswordHash: data.PasswordHash,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromUserDomain converts a domain UserIdentity entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.UserIdentity) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:            data.ID,
		UUID:          data.UUID,
		Email:         nullableString(data.Email),
		DisplayName:   data.DisplayName,
		AvatarURL:     data.AvatarURL,
		StreamKey:     data.StreamKey,
		OAuthProvider: nullableString(data.Provider.String()),
		OAuthID:       nullableString(data.ProviderID),
		OAuthEmail:    data.OAuthEmail,
		PasswordHash:  data.PasswordHash,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
