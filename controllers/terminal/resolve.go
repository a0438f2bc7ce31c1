package terminal

import (
	"encoding/json"
	"errors"

	"bloem/helpers"
	"bloem/models"
	"bloem/paycode"

	"github.com/gofiber/fiber/v2"
)

type ResolveCodeRequest struct {
	Code string `json:"code"`
	// Payload carries a scanned JSON payload as an alternative to the typed
	// 5-digit code.
	Payload json.RawMessage `json:"payload"`
}

// ResolveCode is the customer-device lookup: a typed code resolves against
// the store, a scanned payload is parsed into the single internal shape.
// The three code failure kinds get distinct copy so the UI can explain.
func ResolveCode(codes *paycode.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ResolveCodeRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}

		if len(req.Payload) > 0 {
			payload, err := models.ParseScanPayload(req.Payload)
			if err != nil {
				return helpers.JSONError(c, "UNRECOGNIZED_PAYLOAD")
			}
			return helpers.JSONSuccess(c, "Payload parsed", fiber.Map{
				"merchant_code": payload.MerchantCode,
				"items":         payload.Items,
				"total_amount":  payload.TotalAmount,
				"points_used":   payload.PointsUsed,
			})
		}

		if req.Code == "" {
			return helpers.JSONError(c, "CODE_REQUIRED")
		}

		pc, err := codes.Resolve(req.Code)
		if err != nil {
			switch {
			case errors.Is(err, paycode.ErrCodeNotFound):
				return helpers.JSONError(c, "CODE_NOT_FOUND")
			case errors.Is(err, paycode.ErrCodeExpired):
				return helpers.JSONError(c, "CODE_EXPIRED")
			case errors.Is(err, paycode.ErrCodeAlreadyRedeemed):
				return helpers.JSONError(c, "CODE_ALREADY_REDEEMED")
			default:
				return helpers.JSONError(c, "FAILED_TO_RESOLVE_CODE")
			}
		}

		items, err := pc.Items()
		if err != nil {
			return helpers.JSONError(c, "FAILED_TO_RESOLVE_CODE")
		}

		return helpers.JSONSuccess(c, "Code resolved", fiber.Map{
			"code":             pc.Code,
			"merchant_code":    pc.MerchantCode,
			"items":            items,
			"total_amount":     items.Total(),
			"points_requested": pc.PointsRequested,
			"expires_at":       pc.ExpiresAt,
		})
	}
}
