package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type Basket []LineItem

func (b Basket) Total() int64 {
	var total int64
	for _, it := range b {
		total += it.UnitPrice * it.Quantity
	}
	return total
}

// PaymentCode binds a merchant-prepared basket to a short-lived, single-use
// 5-digit code. The basket is frozen at issue time; only RedeemedAt is ever
// written after creation, exactly once, by the settlement commit.
type PaymentCode struct {
	gorm.Model

	Code            string         `gorm:"size:8;index" json:"code"`
	MerchantCode    string         `gorm:"index;size:32" json:"merchant_code"`
	Basket          datatypes.JSON `json:"basket"`
	PointsRequested int64          `json:"points_requested"`
	IssuedAt        time.Time      `json:"issued_at"`
	ExpiresAt       time.Time      `gorm:"index" json:"expires_at"`
	RedeemedAt      *time.Time     `json:"redeemed_at"`
}

func (pc *PaymentCode) Items() (Basket, error) {
	var b Basket
	if err := json.Unmarshal(pc.Basket, &b); err != nil {
		return nil, fmt.Errorf("decode basket for code %s: %w", pc.Code, err)
	}
	return b, nil
}
