package models

import "gorm.io/gorm"

const (
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

const (
	TxStatusPending   = "pending"
	TxStatusSucceeded = "succeeded"
	TxStatusFailed    = "failed"
)

// Transaction records one settlement attempt. It is created pending and moves
// to exactly one terminal status; rows in a terminal status are never written
// again.
type Transaction struct {
	gorm.Model

	TransactionID string `gorm:"uniqueIndex;size:64" json:"transaction_id"`
	MerchantCode  string `gorm:"index;size:32" json:"merchant_code"`
	CustomerCode  string `gorm:"index;size:32" json:"customer_code"`
	PaymentCode   string `gorm:"index;size:8" json:"payment_code"`

	// GrossAmount is the amount of money that moves: basket total minus the
	// points redeemed against it. Fees and awarded points are computed on it.
	GrossAmount       int64 `json:"gross_amount"`
	PlatformFee       int64 `json:"platform_fee"`
	GatewayFee        int64 `json:"gateway_fee"`
	MerchantNetAmount int64 `json:"merchant_net_amount"`

	PointsRedeemed int64 `json:"points_redeemed"`
	PointsAwarded  int64 `json:"points_awarded"`

	PaymentMethod    string `gorm:"size:8" json:"payment_method"`
	Status           string `gorm:"size:16;index" json:"status"`
	GatewayReference string `gorm:"size:64;index" json:"gateway_reference"`

	// NeedsReconciliation marks settlements where the merchant net was
	// clamped to zero because fees exceeded the gross amount.
	NeedsReconciliation bool   `json:"needs_reconciliation"`
	Note                string `gorm:"size:255" json:"note"`
}
