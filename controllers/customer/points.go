package customer

import (
	"errors"

	"bloem/helpers"
	"bloem/ledger"

	"github.com/gofiber/fiber/v2"
)

type PointsRequest struct {
	CustomerCode string `json:"customer_code"`
}

func Balance(points *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PointsRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
		if req.CustomerCode == "" {
			return helpers.JSONError(c, "CUSTOMER_CODE_REQUIRED")
		}

		balance, err := points.Balance(req.CustomerCode)
		if err != nil {
			if errors.Is(err, ledger.ErrCustomerNotFound) {
				return helpers.JSONError(c, "CUSTOMER_NOT_FOUND")
			}
			return helpers.JSONError(c, "FAILED_TO_GET_BALANCE")
		}

		return helpers.JSONSuccess(c, "Balance retrieved successfully", fiber.Map{
			"customer_code": req.CustomerCode,
			"balance":       balance,
		})
	}
}

func Level(points *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PointsRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
		if req.CustomerCode == "" {
			return helpers.JSONError(c, "CUSTOMER_CODE_REQUIRED")
		}

		level, err := points.LevelFor(req.CustomerCode)
		if err != nil {
			if errors.Is(err, ledger.ErrCustomerNotFound) {
				return helpers.JSONError(c, "CUSTOMER_NOT_FOUND")
			}
			return helpers.JSONError(c, "FAILED_TO_GET_LEVEL")
		}

		return helpers.JSONSuccess(c, "Level retrieved successfully", fiber.Map{
			"customer_code": req.CustomerCode,
			"level":         level,
		})
	}
}
