package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casthub/config"
	"casthub/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, userInfoBody string, userInfoStatus int) *Provider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-access-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		_, _ = w.Write([]byte(userInfoBody))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			RedirectURL:  "http://localhost:3000/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  server.URL + "/auth",
				TokenURL: server.URL + "/token",
			},
		},
		userInfoURL: server.URL + "/userinfo",
	}
}

func TestProvider_Name(t *testing.T) {
	provider := NewProvider(&config.OAuthProviderConfig{})
	assert.Equal(t, entity.ProviderGoogle, provider.Name())
}

func TestProvider_AuthCodeURL(t *testing.T) {
	provider := NewProvider(&config.OAuthProviderConfig{
		ClientID:    "test-client",
		CallbackURL: "http://localhost:3000/api/auth/google/callback",
	})

	authURL := provider.AuthCodeURL("test-state")

	assert.True(t, strings.HasPrefix(authURL, "https://accounts.google.com/"))
	assert.Contains(t, authURL, "state=test-state")
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "response_type=code")
}

func TestProvider_Exchange(t *testing.T) {
	provider := newTestProvider(t,
		`{"id":"google-sub-1","email":"streamer@example.com","name":"Streamer","picture":"https://example.com/avatar.png"}`,
		http.StatusOK,
	)

	profile, err := provider.Exchange(context.Background(), "test-code")
	require.NoError(t, err)

	assert.Equal(t, entity.ProviderGoogle, profile.Provider)
	assert.Equal(t, "google-sub-1", profile.ProviderID)
	assert.Equal(t, "streamer@example.com", profile.Email)
	assert.Equal(t, "Streamer", profile.DisplayName)
	assert.Equal(t, "https://example.com/avatar.png", profile.AvatarURL)
}

func TestProvider_ExchangePartialProfile(t *testing.T) {
	// Missing email and picture degrade to empty fields, not errors.
	provider := newTestProvider(t, `{"id":"google-sub-2","name":"No Email"}`, http.StatusOK)

	profile, err := provider.Exchange(context.Background(), "test-code")
	require.NoError(t, err)

	assert.Equal(t, "google-sub-2", profile.ProviderID)
	assert.Empty(t, profile.Email)
	assert.Empty(t, profile.AvatarURL)
}

func TestProvider_ExchangeMissingSubject(t *testing.T) {
	provider := newTestProvider(t, `{"email":"streamer@example.com"}`, http.StatusOK)

	profile, err := provider.Exchange(context.Background(), "test-code")
	require.Error(t, err)
	assert.Nil(t, profile)
}

func TestProvider_ExchangeUserInfoFailure(t *testing.T) {
	provider := newTestProvider(t, `{"error":"server_error"}`, http.StatusInternalServerError)

	profile, err := provider.Exchange(context.Background(), "test-code")
	require.Error(t, err)
	assert.Nil(t, profile)
}
