package middleware

import (
	contextPkg "WoundMonitor/pkg/context"
	jwtPkg "WoundMonitor/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = jwtPkg.AccessTokenSecretEnv
)

func (m *middleware) unauthorized(ctx *fiber.Ctx, reason string) error {
	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"path":       ctx.Path(),
		"client_ip":  ctx.IP(),
		"reason":     reason,
	}).Warn("Authorization check failed")

	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
	})
}

// NewTokenMiddleware resolves the bearer token into the provider identity
// handlers read with jwtPkg.GetUserLoginData.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	token, err := jwtPkg.BearerToken(ctx)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	provider, err := jwtPkg.ParseProvider(token)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	jwtPkg.SetUserLoginData(ctx, provider)
	ctx.Locals(contextPkg.ProviderIDLocal, provider.ID)

	m.log.WithFields(logrus.Fields{
		"request_id":  m.GetRequestID(ctx),
		"provider_id": provider.ID,
	}).Debug("Authentication successful")
	return ctx.Next()
}
