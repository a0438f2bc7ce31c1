package models

import "gorm.io/gorm"

type Merchant struct {
	gorm.Model

	MerchantCode string `gorm:"uniqueIndex;size:32" json:"merchant_code"`
	Name         string `gorm:"size:128" json:"name"`
	SecretKey    string `gorm:"size:128" json:"secret_key"`
	// GatewayAccountID is the merchant's connected sub-account at the card
	// gateway; card settlements are routed to it with the platform fee
	// withheld as an application fee.
	GatewayAccountID string `gorm:"size:64" json:"gateway_account_id"`
	IsActive         bool   `gorm:"default:true" json:"is_active"`
}
