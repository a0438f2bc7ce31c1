package terminal

import (
	"errors"

	"bloem/helpers"
	"bloem/models"
	"bloem/paycode"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type IssueCodeRequest struct {
	Items []struct {
		Name     string             `json:"name"`
		Price    models.FlexibleInt `json:"price"`
		Quantity models.FlexibleInt `json:"quantity"`
	} `json:"items"`
	PointsRequested int64 `json:"points_requested"`
}

// IssueCode creates a payment code for a finalized basket. The merchant
// terminal calls it once per checkout.
func IssueCode(codes *paycode.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req IssueCodeRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}

		merchant, ok := c.Locals("merchant").(models.Merchant)
		if !ok {
			return helpers.JSONError(c, "INVALID_MERCHANT_SESSION")
		}

		basket := make(models.Basket, 0, len(req.Items))
		for _, it := range req.Items {
			basket = append(basket, models.LineItem{
				Name:      it.Name,
				UnitPrice: int64(it.Price),
				Quantity:  int64(it.Quantity),
			})
		}

		pc, err := codes.Issue(merchant.MerchantCode, basket, req.PointsRequested)
		if err != nil {
			switch {
			case errors.Is(err, paycode.ErrEmptyBasket):
				return helpers.JSONError(c, "BASKET_EMPTY")
			case errors.Is(err, paycode.ErrPointsExceedTotal):
				return helpers.JSONError(c, "POINTS_EXCEED_TOTAL")
			default:
				log.Printf("[TERMINAL] ❌ Failed to issue code for %s: %v", merchant.MerchantCode, err)
				return helpers.JSONError(c, "FAILED_TO_ISSUE_CODE")
			}
		}

		log.Printf("[TERMINAL] ✅ Issued code=%s merchant=%s total=%d", pc.Code, merchant.MerchantCode, basket.Total())
		return helpers.JSONSuccess(c, "Payment code issued", fiber.Map{
			"code":             pc.Code,
			"total_amount":     basket.Total(),
			"points_requested": pc.PointsRequested,
			"expires_at":       pc.ExpiresAt,
		})
	}
}
