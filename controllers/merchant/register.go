package merchant

import (
	"bloem/database"
	"bloem/helpers"
	"bloem/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RegisterMerchantRequest struct {
	Name             string `json:"name"`
	GatewayAccountID string `json:"gateway_account_id"`
}

func RegisterMerchant(c *fiber.Ctx) error {
	var req RegisterMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	if req.Name == "" {
		return helpers.JSONError(c, "NAME_REQUIRED")
	}

	merchantCode := "M" + helpers.GenerateNumericCode(6)
	secretKey := uuid.New().String()

	var existing models.Merchant
	if err := database.DB.Where("merchant_code = ?", merchantCode).First(&existing).Error; err == nil {
		return helpers.JSONError(c, "MERCHANT_CODE_ALREADY_EXISTS")
	}

	m := models.Merchant{
		MerchantCode:     merchantCode,
		Name:             req.Name,
		SecretKey:        secretKey,
		GatewayAccountID: req.GatewayAccountID,
		IsActive:         true,
	}
	if err := database.DB.Create(&m).Error; err != nil {
		return helpers.JSONError(c, "FAILED_TO_REGISTER_MERCHANT")
	}

	return helpers.JSONSuccess(c, "Merchant registered successfully", fiber.Map{
		"merchant_code":      m.MerchantCode,
		"secret_key":         m.SecretKey,
		"gateway_account_id": m.GatewayAccountID,
	})
}
