package settle

import (
	"errors"

	"bloem/gateway"
	"bloem/helpers"
	"bloem/settlement"

	"github.com/gofiber/fiber/v2"
)

func Card(orch *settlement.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SettleRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
		if req.Code == "" || req.CustomerCode == "" {
			return helpers.JSONError(c, "CODE_AND_CUSTOMER_REQUIRED")
		}

		txn, err := orch.BeginCardPayment(c.Context(), req.Code, req.CustomerCode)
		if err != nil {
			// A dead gateway is "payment failed, please retry": the code
			// stays valid for a fresh attempt.
			if errors.Is(err, gateway.ErrGatewayRequest) {
				return helpers.JSONErrorStatus(c, fiber.StatusBadGateway, "PAYMENT_FAILED_PLEASE_RETRY")
			}
			return settlementError(c, err)
		}

		return helpers.JSONSuccess(c, "Card payment started", fiber.Map{
			"transaction_id":    txn.TransactionID,
			"status":            txn.Status,
			"gross_amount":      txn.GrossAmount,
			"gateway_reference": txn.GatewayReference,
		})
	}
}
