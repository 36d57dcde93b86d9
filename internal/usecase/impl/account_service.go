// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "casthub/internal/delivery/context"
	"casthub/internal/domain/entity"
	domainerrors "casthub/internal/domain/errors"
	"casthub/internal/domain/repository"
	"casthub/internal/domain/service"
	"casthub/internal/usecase"
	"casthub/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface. It is the single
// authoritative decision procedure mapping an incoming OAuth profile to
// exactly one canonical account.
type accountService struct {
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	hasher    service.PasswordHasher
	tokenSvc  service.TokenService
	publisher service.EventPublisher
	clock     service.Clock
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	PlanRepo     repository.PlanRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Publisher    service.EventPublisher
	Clock        service.Clock
	Logger       *slog.Logger
}

// NewAccountService is the constructor for accountService. It receives all dependencies as interfaces.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		userRepo:  params.UserRepo,
		planRepo:  params.PlanRepo,
		hasher:    params.Hasher,
		tokenSvc:  params.TokenService,
		publisher: params.Publisher,
		clock:     params.Clock,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ReconcileOAuth maps a normalized provider profile to a canonical account and
// mints a session token for it. Any store or signing failure terminates the
// attempt without partial user-facing state; the caller restarts the provider
// handshake.
func (srv *accountService) ReconcileOAuth(ctx context.Context, profile *service.OAuthProfile) (*usecase.ReconcileOutput, error) {
	srv.log(ctx).Debug("Starting reconciliation",
		slog.String("provider", profile.Provider.String()),
		slog.String("providerID", profile.ProviderID),
	)

	user, isNew, linked, err := srv.reconcile(ctx, profile, true)
	if err != nil {
		srv.log(ctx).Error("Reconciliation failed",
			slog.String("provider", profile.Provider.String()),
			slog.String("providerID", profile.ProviderID),
			slog.Any("error", err),
		)

		return nil, err
	}

	token, err := srv.tokenSvc.Issue(user)
	if err != nil {
		srv.log(ctx).Error("Failed to sign session token", slog.Any("userUUID", user.UUID), slog.Any("error", err))

		return nil, domainerrors.ErrSigningFailed.WrapMessage("failed to issue session token")
	}

	srv.log(ctx).Info("Reconciliation completed",
		slog.Any("userUUID", user.UUID),
		slog.Bool("isNewUser", isNew),
		slog.Bool("accountLinked", linked),
	)

	return &usecase.ReconcileOutput{
		User:          user,
		SessionToken:  token,
		IsNewUser:     isNew,
		AccountLinked: linked,
	}, nil
}

// reconcile runs the ordered decision procedure. The steps are authoritative
// and must not be reordered: a provider-id match wins even when the profile
// now carries a different email.
//
// allowReplay bounds the insert-race retry: when two callbacks race on a
// never-seen provider subject, the losing insert hits the store's uniqueness
// constraint and is replayed once, resolving as an ordinary provider match.
func (srv *accountService) reconcile(ctx context.Context, profile *service.OAuthProfile, allowReplay bool) (*entity.UserIdentity, bool, bool, error) {
	// Step 1: exact provider match.
	user, err := srv.userRepo.FindByProvider(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		return srv.refreshMatchedUser(ctx, user, profile)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, false, errors.Wrap(err, "failed to look up identity by provider")
	}

	// Step 2: email match. An absent email short-circuits linking entirely.
	if profile.Email != "" {
		user, err := srv.userRepo.FindByEmail(ctx, profile.Email)
		if err == nil {
			return srv.linkProfileToUser(ctx, user, profile)
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, false, false, errors.Wrap(err, "failed to look up identity by email")
		}
	}

	// Step 3: no match on either axis, create a fresh account.
	return srv.createUserFromProfile(ctx, profile, allowReplay)
}

// refreshMatchedUser updates display attributes from the incoming profile.
// The provider profile is the freshest source of truth on every login.
func (srv *accountService) refreshMatchedUser(ctx context.Context, user *entity.UserIdentity, profile *service.OAuthProfile) (*entity.UserIdentity, bool, bool, error) {
	if profile.DisplayName != "" {
		user.DisplayName = profile.DisplayName
	}
	user.AvatarURL = profile.AvatarURL
	user.OAuthEmail = profile.Email

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, false, false, errors.Wrap(err, "failed to refresh matched identity")
	}

	return user, false, false, nil
}

// linkProfileToUser re-parents the account's login provider onto the incoming
// profile. This intentionally overwrites a different provider already attached
// to the account; the swap is logged and published so operators can audit it.
func (srv *accountService) linkProfileToUser(ctx context.Context, user *entity.UserIdentity, profile *service.OAuthProfile) (*entity.UserIdentity, bool, bool, error) {
	prior := user.Provider

	user.Provider = profile.Provider
	user.ProviderID = profile.ProviderID
	if profile.DisplayName != "" {
		user.DisplayName = profile.DisplayName
	}
	user.AvatarURL = profile.AvatarURL
	user.OAuthEmail = profile.Email

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, false, false, errors.Wrap(err, "failed to link provider to existing identity")
	}

	srv.log(ctx).Info("Provider re-parented onto existing account",
		slog.Any("userUUID", user.UUID),
		slog.String("priorProvider", prior.String()),
		slog.String("newProvider", profile.Provider.String()),
	)
	srv.publishReparented(ctx, user, prior)

	return user, false, true, nil
}

// createUserFromProfile inserts a brand-new account with a fresh stream key
// and assigns the default plan best-effort.
func (srv *accountService) createUserFromProfile(ctx context.Context, profile *service.OAuthProfile, allowReplay bool) (*entity.UserIdentity, bool, bool, error) {
	streamKey, err := util.RandomHex(entity.StreamKeyBytes)
	if err != nil {
		return nil, false, false, errors.Wrap(err, "failed to generate stream key")
	}

	newUser := &entity.UserIdentity{
		UUID:        uuid.New(),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		StreamKey:   streamKey,
		Provider:    profile.Provider,
		ProviderID:  profile.ProviderID,
		OAuthEmail:  profile.Email,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) && allowReplay {
			// Lost the insert race to a concurrent callback. Replay once,
			// the winner's row now satisfies step 1 or step 2.
			srv.log(ctx).Warn("Identity insert lost uniqueness race, replaying reconciliation",
				slog.String("provider", profile.Provider.String()),
				slog.String("providerID", profile.ProviderID),
			)

			return srv.reconcile(ctx, profile, false)
		}

		return nil, false, false, errors.Wrap(err, "failed to create identity")
	}

	srv.provisionDefaultPlan(ctx, newUser)

	return newUser, true, false, nil
}

// provisionDefaultPlan assigns the Free plan to a newly created account.
// Provisioning is best-effort: a missing plan or a failed insert is logged
// and never blocks account creation.
func (srv *accountService) provisionDefaultPlan(ctx context.Context, user *entity.UserIdentity) {
	plan, err := srv.planRepo.FindPlanByName(ctx, entity.FreePlanName)
	if err != nil {
		srv.log(ctx).Warn("Default plan lookup failed, skipping subscription",
			slog.Any("userUUID", user.UUID),
			slog.Any("error", err),
		)

		return
	}

	now := srv.clock.Now()
	sub := &entity.Subscription{
		UserID:      user.ID,
		PlanID:      plan.ID,
		Status:      entity.SubscriptionStatusActive,
		PeriodStart: now,
		PeriodEnd:   now.Add(entity.DefaultSubscriptionPeriod),
	}

	if err := srv.planRepo.CreateSubscription(ctx, sub); err != nil {
		srv.log(ctx).Warn("Default subscription insert failed",
			slog.Any("userUUID", user.UUID),
			slog.Any("error", err),
		)
	}
}

// publishReparented emits the audit event for a provider swap. Publishing is
// best-effort and never fails the login.
func (srv *accountService) publishReparented(ctx context.Context, user *entity.UserIdentity, prior entity.ProviderType) {
	if srv.publisher == nil {
		return
	}

	event := &service.AccountEvent{
		RequestID:     deliverycontext.GetRequestIDFromContext(ctx),
		Type:          service.EventAccountReparented,
		UserUUID:      user.UUID.String(),
		Email:         user.Email,
		PriorProvider: prior.String(),
		NewProvider:   user.Provider.String(),
		OccurredAt:    srv.clock.Now().UTC().Format(time.RFC3339),
	}

	if err := srv.publisher.PublishAccountEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account event",
			slog.Any("userUUID", user.UUID),
			slog.Any("error", err),
		)
	}
}

// Register creates a new password account and logs it in.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	_, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email already registered")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check email availability")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	streamKey, err := util.RandomHex(entity.StreamKeyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate stream key")
	}

	newUser := &entity.UserIdentity{
		UUID:         uuid.New(),
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		StreamKey:    streamKey,
		PasswordHash: hash,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		return nil, errors.Wrap(err, "failed to create password account")
	}

	token, err := srv.tokenSvc.Issue(newUser)
	if err != nil {
		return nil, domainerrors.ErrSigningFailed.WrapMessage("failed to issue session token")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userUUID", newUser.UUID))

	return &usecase.AuthOutput{User: newUser, SessionToken: token}, nil
}

// Login authenticates a password account.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to load identity for login")
	}

	// Accounts created through OAuth carry no password hash and cannot
	// log in with a password.
	if !user.HasPassword() || !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	token, err := srv.tokenSvc.Issue(user)
	if err != nil {
		return nil, domainerrors.ErrSigningFailed.WrapMessage("failed to issue session token")
	}

	srv.log(ctx).Debug("Login completed", slog.Any("userUUID", user.UUID))

	return &usecase.AuthOutput{User: user, SessionToken: token}, nil
}

// GetByUUID loads an account by its public uuid.
func (srv *accountService) GetByUUID(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error) {
	user, err := srv.userRepo.FindByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("account not found")
		}

		return nil, errors.Wrap(err, "failed to load identity by uuid")
	}

	return user, nil
}

// RotateStreamKey replaces the account's stream key with a fresh one.
func (srv *accountService) RotateStreamKey(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error) {
	user, err := srv.userRepo.FindByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("account not found")
		}

		return nil, errors.Wrap(err, "failed to load identity for key rotation")
	}

	streamKey, err := util.RandomHex(entity.StreamKeyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate stream key")
	}
	user.StreamKey = streamKey

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to persist rotated stream key")
	}

	srv.log(ctx).Info("Stream key rotated", slog.Any("userUUID", user.UUID))

	return user, nil
}
