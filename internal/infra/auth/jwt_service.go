// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"casthub/config"
	"casthub/internal/domain/entity"
	"casthub/internal/domain/service"
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret string        // Secret key for signing session tokens.
	ttl    time.Duration // Time-to-live for session tokens.
	clock  service.Clock // Injected so expiry can be tested deterministically.
}

// NewJWTService is the constructor for jwtService.
// A missing secret is a configuration error and aborts startup.
func NewJWTService(cfg *config.Config, clock service.Clock) (service.TokenService, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	return &jwtService{
		secret: cfg.JWT.Secret,
		ttl:    service.SessionTTL,
		clock:  clock,
	}, nil
}

// Issue mints a signed HS256 session token carrying the identity snapshot
// clients read without a round trip to the store.
func (s *jwtService) Issue(user *entity.UserIdentity) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":           user.UUID.String(),
		"iat":           now.Unix(),
		"exp":           now.Add(s.ttl).Unix(),
		"userId":        user.ID,
		"userUuid":      user.UUID.String(),
		"email":         user.Email,
		"displayName":   user.DisplayName,
		"avatarUrl":     user.AvatarURL,
		"streamKey":     user.StreamKey,
		"oauthProvider": user.Provider.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

// Validate checks a token string and returns its decoded claims.
func (s *jwtService) Validate(tokenString string) (*service.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse session token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}

	return s.decodeClaims(mapClaims)
}

func (s *jwtService) decodeClaims(mapClaims jwt.MapClaims) (*service.SessionClaims, error) {
	userUUID, err := uuid.Parse(stringClaim(mapClaims, "userUuid"))
	if err != nil {
		return nil, errors.Wrap(err, "session token carries a malformed user uuid")
	}

	claims := &service.SessionClaims{
		UserUUID:    userUUID,
		Email:       stringClaim(mapClaims, "email"),
		DisplayName: stringClaim(mapClaims, "displayName"),
		AvatarURL:   stringClaim(mapClaims, "avatarUrl"),
		StreamKey:   stringClaim(mapClaims, "streamKey"),
		Provider:    entity.ProviderType(stringClaim(mapClaims, "oauthProvider")),
	}

	// JSON numbers decode as float64.
	if id, ok := mapClaims["userId"].(float64); ok {
		claims.UserID = uint(id)
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}

	return ""
}
