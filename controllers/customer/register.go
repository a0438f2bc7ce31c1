package customer

import (
	"bloem/database"
	"bloem/helpers"
	"bloem/models"

	"github.com/gofiber/fiber/v2"
)

type RegisterCustomerRequest struct {
	Name string `json:"name"`
}

func RegisterCustomer(c *fiber.Ctx) error {
	var req RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	customerCode := "C" + helpers.GenerateNumericCode(8)

	var existing models.Customer
	if err := database.DB.Where("customer_code = ?", customerCode).First(&existing).Error; err == nil {
		return helpers.JSONError(c, "CUSTOMER_CODE_ALREADY_EXISTS")
	}

	customer := models.Customer{
		CustomerCode: customerCode,
		Name:         req.Name,
		IsActive:     true,
	}
	if err := database.DB.Create(&customer).Error; err != nil {
		return helpers.JSONError(c, "FAILED_TO_REGISTER_CUSTOMER")
	}

	return helpers.JSONSuccess(c, "Customer registered successfully", fiber.Map{
		"customer_code": customer.CustomerCode,
		"name":          customer.Name,
	})
}
