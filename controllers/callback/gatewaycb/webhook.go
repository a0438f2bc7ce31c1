// Package gatewaycb receives the card gateway's webhook deliveries. The
// signature middleware has already authenticated the body by the time the
// handler runs.
package gatewaycb

import (
	"errors"

	"bloem/gateway"
	"bloem/settlement"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

func Webhook(orch *settlement.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ev, err := gateway.InterpretEvent(c.Body())
		if err != nil {
			log.Printf("[WEBHOOK] ❌ Malformed event: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"received": false})
		}

		txn, err := orch.HandleGatewayEvent(ev)
		if err != nil {
			if errors.Is(err, settlement.ErrTransactionNotFound) {
				log.Printf("[WEBHOOK] ⚠️ Event for unknown reference %s", ev.Reference)
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"received": false})
			}
			// Commit failed; a non-2xx makes the gateway redeliver and the
			// whole commit retries as one unit.
			log.Printf("[WEBHOOK] ❌ Failed to apply event %s: %v", ev.Reference, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"received": false})
		}

		return c.JSON(fiber.Map{
			"received": true,
			"status":   txn.Status,
		})
	}
}
