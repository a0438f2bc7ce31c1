// Package settle exposes the two redemption endpoints. Cash settles
// synchronously; card hands off to the gateway and finishes on its callback.
package settle

import (
	"errors"

	"bloem/helpers"
	"bloem/ledger"
	"bloem/paycode"
	"bloem/settlement"

	"github.com/gofiber/fiber/v2"
)

type SettleRequest struct {
	Code         string `json:"code"`
	CustomerCode string `json:"customer_code"`
}

func Cash(orch *settlement.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SettleRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
		if req.Code == "" || req.CustomerCode == "" {
			return helpers.JSONError(c, "CODE_AND_CUSTOMER_REQUIRED")
		}

		txn, err := orch.SettleCash(req.Code, req.CustomerCode)
		if err != nil {
			return settlementError(c, err)
		}

		return helpers.JSONSuccess(c, "Settlement completed", fiber.Map{
			"transaction_id":  txn.TransactionID,
			"status":          txn.Status,
			"gross_amount":    txn.GrossAmount,
			"points_redeemed": txn.PointsRedeemed,
			"points_awarded":  txn.PointsAwarded,
		})
	}
}

// settlementError maps the error taxonomy onto the distinct user-facing
// messages the terminals show.
func settlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, paycode.ErrCodeNotFound):
		return helpers.JSONError(c, "CODE_NOT_FOUND")
	case errors.Is(err, paycode.ErrCodeExpired):
		return helpers.JSONError(c, "CODE_EXPIRED")
	case errors.Is(err, paycode.ErrCodeAlreadyRedeemed):
		return helpers.JSONError(c, "CODE_ALREADY_REDEEMED")
	case errors.Is(err, ledger.ErrInsufficientPoints):
		return helpers.JSONError(c, "INSUFFICIENT_POINTS")
	case errors.Is(err, ledger.ErrCustomerNotFound):
		return helpers.JSONError(c, "CUSTOMER_NOT_FOUND")
	case errors.Is(err, settlement.ErrMerchantNotFound):
		return helpers.JSONError(c, "MERCHANT_NOT_FOUND")
	default:
		return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "SETTLEMENT_FAILED")
	}
}
