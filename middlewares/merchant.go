package middlewares

import (
	"bloem/database"
	"bloem/helpers"
	"bloem/models"

	"github.com/gofiber/fiber/v2"
)

// MerchantAuth authenticates the merchant terminal by its issued credentials
// and stashes the merchant row for the handlers.
func MerchantAuth(c *fiber.Ctx) error {
	merchantCode := c.Get("X-Merchant-Code")
	secretKey := c.Get("X-Secret-Key")

	if merchantCode == "" || secretKey == "" {
		return helpers.JSONError(c, "MERCHANT_CODE_AND_SECRET_REQUIRED")
	}

	var merchant models.Merchant
	if err := database.DB.Where("merchant_code = ? AND secret_key = ? AND is_active = true", merchantCode, secretKey).First(&merchant).Error; err != nil {
		return helpers.JSONError(c, "INVALID_MERCHANT_CREDENTIALS")
	}

	c.Locals("merchant", merchant)
	return c.Next()
}
