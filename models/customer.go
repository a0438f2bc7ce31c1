package models

import (
	"gorm.io/gorm"
)

type Customer struct {
	gorm.Model

	CustomerCode string `gorm:"uniqueIndex;size:32" json:"customer_code"`
	Name         string `gorm:"size:128" json:"name"`
	// PointBalance is the spendable balance, kept as a materialized running
	// total of the ledger entries and updated in the same transaction as
	// every entry insert.
	PointBalance int64 `json:"point_balance"`
	// LifetimeEarned only ever grows; level tiers are computed from it so
	// spending points never demotes a customer.
	LifetimeEarned int64 `json:"lifetime_earned"`
	IsActive       bool  `gorm:"default:true" json:"is_active"`

	LedgerEntries []PointLedgerEntry `gorm:"foreignKey:CustomerID"`
}

type PointLedgerEntry struct {
	gorm.Model

	CustomerID    uint   `gorm:"index"`
	CustomerCode  string `gorm:"index;size:32" json:"customer_code"`
	Delta         int64  `json:"delta"`
	Reason        string `gorm:"size:255" json:"reason"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	RefID         string `gorm:"size:64;index" json:"ref_id"`
}
