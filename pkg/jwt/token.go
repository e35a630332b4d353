package jwtPkg

import (
	"WoundMonitor/internal/entity"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

const (
	AccessTokenSecretEnv = "JWT_ACCESS_TOKEN_SECRET"
	Issuer               = "wound-monitor"

	providerLocal = "user"
)

var (
	ErrSecretNotSet     = fmt.Errorf("%s not set", AccessTokenSecretEnv)
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidScheme    = errors.New("invalid Authorization format")
	ErrIncompleteClaims = errors.New("token claims are missing required fields")
)

// ProviderClaims identifies the care provider a token was issued to. The
// provider id is the registered subject.
type ProviderClaims struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func secret() ([]byte, error) {
	key := os.Getenv(AccessTokenSecretEnv)
	if key == "" {
		return nil, ErrSecretNotSet
	}
	return []byte(key), nil
}

// SignProvider issues an HS256 access token for provider, valid for ttl.
func SignProvider(provider entity.UserLoginData, ttl time.Duration) (string, time.Time, error) {
	if provider.ID == "" || provider.Email == "" {
		return "", time.Time{}, ErrIncompleteClaims
	}

	key, err := secret()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := ProviderClaims{
		Email:    provider.Email,
		Username: provider.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   provider.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign provider token")
		return "", time.Time{}, err
	}

	logrus.WithFields(logrus.Fields{
		"provider_id": provider.ID,
		"expires_at":  expiresAt,
	}).Debug("Provider token signed")
	return token, expiresAt, nil
}

// BearerToken extracts the access token from the Authorization header.
// Websocket clients that cannot set headers may pass it as ?access_token=.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if token := strings.TrimSpace(c.Query("access_token")); token != "" {
			return token, nil
		}
		return "", ErrMissingToken
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", ErrInvalidScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// ParseProvider verifies token and returns the provider it was issued to.
func ParseProvider(token string) (entity.UserLoginData, error) {
	key, err := secret()
	if err != nil {
		return entity.UserLoginData{}, err
	}

	claims := &ProviderClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return entity.UserLoginData{}, err
	}

	if claims.Subject == "" || claims.Email == "" {
		return entity.UserLoginData{}, ErrIncompleteClaims
	}

	return entity.UserLoginData{
		ID:       claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

func SetUserLoginData(c *fiber.Ctx, provider entity.UserLoginData) {
	c.Locals(providerLocal, provider)
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	user, ok := c.Locals(providerLocal).(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
