// Package twitch implements the OAuth provider adapter for Twitch.
package twitch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"casthub/config"
	"casthub/internal/domain/entity"
	"casthub/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://id.twitch.tv/oauth2/authorize"
	tokenURL = "https://id.twitch.tv/oauth2/token"
	usersURL = "https://api.twitch.tv/helix/users"
)

// Provider adapts Twitch's OAuth flow to the normalized profile contract.
type Provider struct {
	oauth    *oauth2.Config
	usersURL string
}

// NewProvider is the constructor for the Twitch adapter.
func NewProvider(cfg *config.OAuthProviderConfig) service.OAuthProvider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			// Twitch only reveals the account email with this scope, and
			// only for verified addresses. The profile stays usable without it.
			Scopes:   []string{"user:read:email"},
			Endpoint: oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		usersURL: usersURL,
	}
}

// Name returns the provider identifier used for routing and storage.
func (p *Provider) Name() entity.ProviderType {
	return entity.ProviderTwitch
}

// AuthCodeURL builds the Twitch authorization URL carrying the anti-forgery state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for the Twitch profile via the Helix
// users endpoint. Helix requires the Client-Id header next to the bearer token.
func (p *Provider) Exchange(ctx context.Context, code string) (*service.OAuthProfile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "twitch code exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.usersURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create twitch users request")
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Client-Id", p.oauth.ClientID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "twitch users request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("twitch users request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var usersResponse struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			Email           string `json:"email"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&usersResponse); err != nil {
		return nil, errors.Wrap(err, "failed to decode twitch users response")
	}

	if len(usersResponse.Data) == 0 || usersResponse.Data[0].ID == "" {
		return nil, errors.New("twitch profile carries no subject id")
	}

	twitchUser := usersResponse.Data[0]
	displayName := twitchUser.DisplayName
	if displayName == "" {
		displayName = twitchUser.Login
	}

	return &service.OAuthProfile{
		Provider:    entity.ProviderTwitch,
		ProviderID:  twitchUser.ID,
		Email:       twitchUser.Email,
		DisplayName: displayName,
		AvatarURL:   twitchUser.ProfileImageURL,
	}, nil
}
