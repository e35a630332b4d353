package config

import (
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/handlerUtil"
	"errors"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Wound Monitor",
			BodyLimit:         10 * 1024 * 1024,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: false,
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					return c.Status(fiberErr.Code).JSON(handlerUtil.ErrorResponse{Error: fiberErr.Message})
				}
				requestID := contextPkg.ResolveRequestID(c.Locals(contextPkg.RequestIDLocal), c.Get(contextPkg.RequestIDLocal))
				return handlerUtil.New(logger).Handle(c, requestID, err, c.Path(), "unhandled")
			},
		})

	return app
}
