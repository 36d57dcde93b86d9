// Package google implements the OAuth provider adapter for Google.
package google

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
	googleoauth "golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Provider adapts Google's OAuth flow to the normalized profile contract.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewProvider is the constructor for the Google adapter.
func NewProvider(cfg *config.OAuthProviderConfig) service.OAuthProvider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// Name returns the provider identifier used for routing and storage.
func (p *Provider) Name() entity.ProviderType {
	return entity.ProviderGoogle
}

// AuthCodeURL builds the Google authorization URL carrying the anti-forgery state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for Google's profile. Only a missing
// subject id is fatal; absent email or picture degrade to empty fields.
func (p *Provider) Exchange(ctx context.Context, code string) (*service.OAuthProfile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "google code exchange failed")
	}

	resp, err := p.oauth.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "google userinfo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("google userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode google userinfo response")
	}

	if googleUser.ID == "" {
		return nil, errors.New("google profile carries no subject id")
	}

	return &service.OAuthProfile{
		Provider:    entity.ProviderGoogle,
		ProviderID:  googleUser.ID,
		Email:       googleUser.Email,
		DisplayName: googleUser.Name,
		AvatarURL:   googleUser.Picture,
	}, nil
}
