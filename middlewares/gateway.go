package middlewares

import (
	"bloem/gateway"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// GatewayWebhookAuth verifies the callback signature before any handler may
// act on it. Unverified callbacks are refused outright.
func GatewayWebhookAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Gateway-Signature")
		if err := gateway.VerifySignature(c.Body(), header, secret, gateway.DefaultSignatureTolerance); err != nil {
			log.Printf("[WEBHOOK] ❌ Rejected unverified callback: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "INVALID_SIGNATURE",
			})
		}
		return c.Next()
	}
}
