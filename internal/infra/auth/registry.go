package auth

import (
	"fmt"
	"log/slog"

	"casthub/config"
	"casthub/internal/domain/entity"
	"casthub/internal/domain/service"
	"casthub/internal/infra/auth/google"
	"casthub/internal/infra/auth/twitch"

	"go.uber.org/fx"
)

// defaultCallbackURLFormat fills in the callback URL for providers configured
// without one. The placeholder is the provider name.
const defaultCallbackURLFormat = "http://localhost:3000/api/auth/%s/callback"

// ProviderRegistry holds the OAuth provider adapters enabled by configuration.
// A provider without credentials in the config is simply absent, requests for
// it fail at the routing layer rather than at the provider.
type ProviderRegistry struct {
	providers map[entity.ProviderType]service.OAuthProvider
}

// RegistryParams holds dependencies for ProviderRegistry, injected by Fx.
type RegistryParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewProviderRegistry builds the registry from configuration.
func NewProviderRegistry(params RegistryParams) *ProviderRegistry {
	registry := &ProviderRegistry{
		providers: make(map[entity.ProviderType]service.OAuthProvider),
	}

	if cfg := params.Config.OAuth.Google; providerEnabled(cfg) {
		registry.register(google.NewProvider(withDefaultCallback(cfg, entity.ProviderGoogle)), params.Logger)
	}
	if cfg := params.Config.OAuth.Twitch; providerEnabled(cfg) {
		registry.register(twitch.NewProvider(withDefaultCallback(cfg, entity.ProviderTwitch)), params.Logger)
	}

	if len(registry.providers) == 0 {
		params.Logger.Warn("No OAuth providers configured, only password login is available")
	}

	return registry
}

// Get returns the adapter for a provider name, if it is enabled.
func (r *ProviderRegistry) Get(name entity.ProviderType) (service.OAuthProvider, bool) {
	provider, ok := r.providers[name]

	return provider, ok
}

// Names returns the enabled provider identifiers.
func (r *ProviderRegistry) Names() []entity.ProviderType {
	names := make([]entity.ProviderType, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names
}

func (r *ProviderRegistry) register(provider service.OAuthProvider, logger *slog.Logger) {
	r.providers[provider.Name()] = provider
	logger.Info("OAuth provider enabled", slog.String("provider", provider.Name().String()))
}

// providerEnabled requires both client credentials. The env overlay can
// materialize a section from a lone variable, such as a callback URL, and
// that alone must not enable the provider.
func providerEnabled(cfg *config.OAuthProviderConfig) bool {
	return cfg != nil && cfg.ClientID != "" && cfg.ClientSecret != ""
}

func withDefaultCallback(cfg *config.OAuthProviderConfig, name entity.ProviderType) *config.OAuthProviderConfig {
	if cfg.CallbackURL != "" {
		return cfg
	}

	filled := *cfg
	filled.CallbackURL = fmt.Sprintf(defaultCallbackURLFormat, name)

	return &filled
}
