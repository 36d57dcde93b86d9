package impl

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"casthub/internal/domain/entity"
	domainerrors "casthub/internal/domain/errors"
	"casthub/internal/domain/repository"
	"casthub/internal/domain/service"
	"casthub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepository enforcing the same uniqueness
// rules the real store does.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  []*entity.UserIdentity

	findErr    error
	updateErr  error
	createHook func(repo *fakeUserRepo) error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) clone(u *entity.UserIdentity) *entity.UserIdentity {
	cp := *u

	return &cp
}

func (r *fakeUserRepo) FindByProvider(_ context.Context, provider entity.ProviderType, providerID string) (*entity.UserIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return r.clone(u), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.UserIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUUID(_ context.Context, id uuid.UUID) (*entity.UserIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.UUID == id {
			return r.clone(u), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.UserIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createHook != nil {
		hook := r.createHook
		r.createHook = nil
		if err := hook(r); err != nil {
			return err
		}
	}

	for _, u := range r.users {
		if user.Provider != entity.ProviderNone && u.Provider == user.Provider && u.ProviderID == user.ProviderID {
			return domainerrors.ErrUserAlreadyExists
		}
		if user.Email != "" && u.Email == user.Email {
			return domainerrors.ErrUserAlreadyExists
		}
	}

	user.ID = r.nextID
	r.nextID++
	r.users = append(r.users, r.clone(user))

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.UserIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = r.clone(user)

			return nil
		}
	}

	return repository.ErrUserNotFound
}

// insert seeds a row directly, bypassing uniqueness checks.
func (r *fakeUserRepo) insert(user *entity.UserIdentity) *entity.UserIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	r.users = append(r.users, r.clone(user))

	return user
}

type fakePlanRepo struct {
	mu            sync.Mutex
	plans         []*entity.Plan
	subscriptions []*entity.Subscription

	findErr   error
	createErr error
}

func (r *fakePlanRepo) FindPlanByName(_ context.Context, name string) (*entity.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.plans {
		if p.Name == name {
			return p, nil
		}
	}

	return nil, repository.ErrPlanNotFound
}

func (r *fakePlanRepo) CreateSubscription(_ context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.subscriptions = append(r.subscriptions, sub)

	return nil
}

type stubTokenService struct {
	issueErr error
	issued   []*entity.UserIdentity
}

func (s *stubTokenService) Issue(user *entity.UserIdentity) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	s.issued = append(s.issued, user)

	return "token-" + user.UUID.String(), nil
}

func (s *stubTokenService) Validate(string) (*service.SessionClaims, error) {
	return nil, errors.New("not implemented")
}

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (stubHasher) Check(password, hash string) bool { return "hashed:"+password == hash }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type capturePublisher struct {
	mu     sync.Mutex
	events []*service.AccountEvent
	err    error
}

func (p *capturePublisher) PublishAccountEvent(_ context.Context, event *service.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)

	return nil
}

func (p *capturePublisher) Close() error { return nil }

type serviceFixture struct {
	users     *fakeUserRepo
	plans     *fakePlanRepo
	tokens    *stubTokenService
	publisher *capturePublisher
	clock     fixedClock
	svc       usecase.AccountUsecase
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		users:     newFakeUserRepo(),
		plans:     &fakePlanRepo{plans: []*entity.Plan{{ID: 1, Name: entity.FreePlanName}}},
		tokens:    &stubTokenService{},
		publisher: &capturePublisher{},
		clock:     fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewAccountService(AccountServiceParams{
		UserRepo:     f.users,
		PlanRepo:     f.plans,
		Hasher:       stubHasher{},
		TokenService: f.tokens,
		Publisher:    f.publisher,
		Clock:        f.clock,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return f
}

func googleProfile() *service.OAuthProfile {
	return &service.OAuthProfile{
		Provider:    entity.ProviderGoogle,
		ProviderID:  "google-sub-1",
		Email:       "streamer@example.com",
		DisplayName: "Streamer",
		AvatarURL:   "https://example.com/avatar.png",
	}
}

func TestReconcileOAuth_CreatesNewUser(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.True(t, out.IsNewUser)
	assert.False(t, out.AccountLinked)
	assert.Equal(t, "streamer@example.com", out.User.Email)
	assert.Equal(t, "streamer@example.com", out.User.OAuthEmail)
	assert.Equal(t, entity.ProviderGoogle, out.User.Provider)
	assert.Equal(t, "google-sub-1", out.User.ProviderID)
	assert.NotEqual(t, uuid.Nil, out.User.UUID)
	assert.Equal(t, "token-"+out.User.UUID.String(), out.SessionToken)

	// Stream key is hex over 24 random bytes.
	require.Len(t, out.User.StreamKey, entity.StreamKeyBytes*2)
	_, err = hex.DecodeString(out.User.StreamKey)
	require.NoError(t, err)

	// Free plan is assigned for the 30 days following creation.
	require.Len(t, f.plans.subscriptions, 1)
	sub := f.plans.subscriptions[0]
	assert.Equal(t, out.User.ID, sub.UserID)
	assert.Equal(t, uint(1), sub.PlanID)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, f.clock.now, sub.PeriodStart)
	assert.Equal(t, f.clock.now.Add(entity.DefaultSubscriptionPeriod), sub.PeriodEnd)
}

func TestReconcileOAuth_RepeatLoginIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	first, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)
	require.True(t, first.IsNewUser)

	second, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.False(t, second.IsNewUser)
	assert.False(t, second.AccountLinked)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, first.User.UUID, second.User.UUID)
	assert.Equal(t, first.User.StreamKey, second.User.StreamKey, "stream key must survive logins")
	assert.Len(t, f.users.users, 1)
	assert.Len(t, f.plans.subscriptions, 1, "subscription is provisioned once, on creation only")
}

func TestReconcileOAuth_ProviderMatchRefreshesProfile(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	seeded := f.users.insert(&entity.UserIdentity{
		UUID:        uuid.New(),
		Email:       "streamer@example.com",
		DisplayName: "Old Name",
		AvatarURL:   "https://example.com/old.png",
		StreamKey:   "abcd",
		Provider:    entity.ProviderGoogle,
		ProviderID:  "google-sub-1",
	})

	profile := googleProfile()
	profile.DisplayName = "New Name"
	profile.AvatarURL = "https://example.com/new.png"
	profile.Email = "rotated@example.com"

	out, err := f.svc.ReconcileOAuth(context.Background(), profile)
	require.NoError(t, err)

	assert.False(t, out.IsNewUser)
	assert.False(t, out.AccountLinked)
	assert.Equal(t, seeded.ID, out.User.ID)
	assert.Equal(t, "New Name", out.User.DisplayName)
	assert.Equal(t, "https://example.com/new.png", out.User.AvatarURL)
	assert.Equal(t, "rotated@example.com", out.User.OAuthEmail, "shadow email tracks the provider")
	assert.Equal(t, "streamer@example.com", out.User.Email, "primary email is never rewritten by a provider match")
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.plans.subscriptions)
}

func TestReconcileOAuth_ProviderMatchWinsOverEmail(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	byProvider := f.users.insert(&entity.UserIdentity{
		UUID:       uuid.New(),
		Email:      "original@example.com",
		Provider:   entity.ProviderGoogle,
		ProviderID: "google-sub-1",
	})
	f.users.insert(&entity.UserIdentity{
		UUID:  uuid.New(),
		Email: "streamer@example.com",
	})

	// Profile email now points at the second account, but the provider
	// subject already belongs to the first.
	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.Equal(t, byProvider.ID, out.User.ID)
	assert.False(t, out.AccountLinked)
	assert.Equal(t, "original@example.com", out.User.Email)
}

func TestReconcileOAuth_EmailMatchReparentsProvider(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	existing := f.users.insert(&entity.UserIdentity{
		UUID:       uuid.New(),
		Email:      "streamer@example.com",
		StreamKey:  "existingkey",
		Provider:   entity.ProviderTwitch,
		ProviderID: "twitch-77",
	})

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.False(t, out.IsNewUser)
	assert.True(t, out.AccountLinked)
	assert.Equal(t, existing.ID, out.User.ID)
	assert.Equal(t, entity.ProviderGoogle, out.User.Provider)
	assert.Equal(t, "google-sub-1", out.User.ProviderID)
	assert.Equal(t, "existingkey", out.User.StreamKey)
	assert.Empty(t, f.plans.subscriptions, "linking never provisions a subscription")

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, service.EventAccountReparented, event.Type)
	assert.Equal(t, existing.UUID.String(), event.UserUUID)
	assert.Equal(t, entity.ProviderTwitch.String(), event.PriorProvider)
	assert.Equal(t, entity.ProviderGoogle.String(), event.NewProvider)
}

func TestReconcileOAuth_PasswordAccountGainsProvider(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	existing := f.users.insert(&entity.UserIdentity{
		UUID:         uuid.New(),
		Email:        "streamer@example.com",
		PasswordHash: "hashed:secret",
		StreamKey:    "passwordkey",
	})

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.True(t, out.AccountLinked)
	assert.Equal(t, existing.ID, out.User.ID)
	assert.Equal(t, entity.ProviderGoogle, out.User.Provider)
	assert.Equal(t, "hashed:secret", out.User.PasswordHash, "password login must survive linking")
	assert.Len(t, f.users.users, 1, "no duplicate account is created")
}

func TestReconcileOAuth_MissingEmailSkipsLinking(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.users.insert(&entity.UserIdentity{
		UUID:       uuid.New(),
		Email:      "streamer@example.com",
		Provider:   entity.ProviderTwitch,
		ProviderID: "twitch-77",
	})

	profile := googleProfile()
	profile.Email = ""

	out, err := f.svc.ReconcileOAuth(context.Background(), profile)
	require.NoError(t, err)

	assert.True(t, out.IsNewUser, "without an email the profile can only create a fresh account")
	assert.False(t, out.AccountLinked)
	assert.Empty(t, out.User.Email)
	assert.Len(t, f.users.users, 2)
}

func TestReconcileOAuth_InsertRaceReplaysOnce(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	// Simulate a concurrent callback winning the insert between our lookup
	// and our Create: the hook seeds the winner's row and surfaces the
	// uniqueness violation the store would raise.
	winnerUUID := uuid.New()
	f.users.createHook = func(repo *fakeUserRepo) error {
		repo.users = append(repo.users, &entity.UserIdentity{
			ID:         repo.nextID,
			UUID:       winnerUUID,
			Email:      "streamer@example.com",
			StreamKey:  "winnerkey",
			Provider:   entity.ProviderGoogle,
			ProviderID: "google-sub-1",
		})
		repo.nextID++

		return domainerrors.ErrUserAlreadyExists
	}

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)

	assert.False(t, out.IsNewUser, "the replay resolves to the winner's row")
	assert.Equal(t, winnerUUID, out.User.UUID)
	assert.Equal(t, "winnerkey", out.User.StreamKey)
	assert.Len(t, f.users.users, 1)
}

func TestReconcileOAuth_ProvisioningFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(plans *fakePlanRepo)
	}{
		{
			name:  "plan row missing",
			setup: func(plans *fakePlanRepo) { plans.plans = nil },
		},
		{
			name:  "plan lookup fails",
			setup: func(plans *fakePlanRepo) { plans.findErr = errors.New("connection refused") },
		},
		{
			name:  "subscription insert fails",
			setup: func(plans *fakePlanRepo) { plans.createErr = errors.New("connection refused") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newServiceFixture(t)
			tt.setup(f.plans)

			out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
			require.NoError(t, err, "subscription provisioning must never fail the login")
			assert.True(t, out.IsNewUser)
			assert.NotEmpty(t, out.SessionToken)
			assert.Empty(t, f.plans.subscriptions)
		})
	}
}

func TestReconcileOAuth_StoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.users.findErr = errors.New("connection refused")

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Empty(t, f.tokens.issued, "no token may be issued on a failed reconciliation")
}

func TestReconcileOAuth_SigningFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.tokens.issueErr = errors.New("signing failed")

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.Error(t, err)
	require.ErrorIs(t, err, domainerrors.ErrSigningFailed)
	assert.Nil(t, out)
}

func TestReconcileOAuth_PublisherFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.publisher.err = errors.New("broker unavailable")
	f.users.insert(&entity.UserIdentity{
		UUID:       uuid.New(),
		Email:      "streamer@example.com",
		Provider:   entity.ProviderTwitch,
		ProviderID: "twitch-77",
	})

	out, err := f.svc.ReconcileOAuth(context.Background(), googleProfile())
	require.NoError(t, err)
	assert.True(t, out.AccountLinked)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	out, err := f.svc.Register(context.Background(), &usecase.RegisterInput{
		DisplayName: "Streamer",
		Email:       "streamer@example.com",
		Password:    "secret-password",
	})
	require.NoError(t, err)

	assert.Equal(t, "hashed:secret-password", out.User.PasswordHash)
	assert.Equal(t, entity.ProviderNone, out.User.Provider)
	assert.Len(t, out.User.StreamKey, entity.StreamKeyBytes*2)
	assert.NotEmpty(t, out.SessionToken)

	_, err = f.svc.Register(context.Background(), &usecase.RegisterInput{
		DisplayName: "Other",
		Email:       "streamer@example.com",
		Password:    "other-password",
	})
	require.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.users.insert(&entity.UserIdentity{
		UUID:         uuid.New(),
		Email:        "streamer@example.com",
		PasswordHash: "hashed:secret-password",
	})
	f.users.insert(&entity.UserIdentity{
		UUID:       uuid.New(),
		Email:      "oauth-only@example.com",
		Provider:   entity.ProviderGoogle,
		ProviderID: "google-sub-9",
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "streamer@example.com", password: "secret-password"},
		{name: "wrong password", email: "streamer@example.com", password: "nope", wantErr: domainerrors.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "secret-password", wantErr: domainerrors.ErrInvalidCredentials},
		{name: "oauth account has no password", email: "oauth-only@example.com", password: "secret-password", wantErr: domainerrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := f.svc.Login(context.Background(), &usecase.LoginInput{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, out.User.Email)
			assert.NotEmpty(t, out.SessionToken)
		})
	}
}

func TestGetByUUID(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	seeded := f.users.insert(&entity.UserIdentity{UUID: uuid.New(), Email: "streamer@example.com"})

	got, err := f.svc.GetByUUID(context.Background(), seeded.UUID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	_, err = f.svc.GetByUUID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestRotateStreamKey(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	seeded := f.users.insert(&entity.UserIdentity{
		UUID:      uuid.New(),
		Email:     "streamer@example.com",
		StreamKey: "0ldkey",
	})

	got, err := f.svc.RotateStreamKey(context.Background(), seeded.UUID)
	require.NoError(t, err)

	assert.NotEqual(t, "0ldkey", got.StreamKey)
	assert.Len(t, got.StreamKey, entity.StreamKeyBytes*2)

	stored, err := f.users.FindByUUID(context.Background(), seeded.UUID)
	require.NoError(t, err)
	assert.Equal(t, got.StreamKey, stored.StreamKey)
}
