// Package ledger maintains customer point balances as an append-only entry
// log with a materialized running total on the customer row. The total is
// recomputed inside the same transaction as every entry insert, so the two
// can never drift.
package ledger

import (
	"errors"
	"fmt"

	"bloem/database"
	"bloem/models"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("point amount must be positive")
)

// LevelThresholds maps cumulative lifetime earned points to a tier. Tiers are
// a read-time projection; nothing stores them.
var LevelThresholds = []int64{0, 100, 500, 1000}

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Award appends a positive entry and bumps both the spendable balance and the
// lifetime total.
func (l *Ledger) Award(customerCode string, amount int64, reason, refID string) (int64, error) {
	var newBalance int64
	err := l.db.Transaction(func(tx *gorm.DB) error {
		balance, err := l.TxAward(tx, customerCode, amount, reason, refID)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	return newBalance, err
}

// Redeem appends a negative entry only when the current balance covers it;
// otherwise it fails with ErrInsufficientPoints and writes nothing. The
// customer row is locked for the duration, so concurrent redemptions from the
// same customer serialize instead of racing the balance below zero.
func (l *Ledger) Redeem(customerCode string, amount int64, reason, refID string) (int64, error) {
	var newBalance int64
	err := l.db.Transaction(func(tx *gorm.DB) error {
		balance, err := l.TxRedeem(tx, customerCode, amount, reason, refID)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	return newBalance, err
}

// TxAward is Award running inside a caller-owned transaction. The settlement
// commit uses it to fold the point award into its own atomic unit.
func (l *Ledger) TxAward(tx *gorm.DB, customerCode string, amount int64, reason, refID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	customer, err := lockCustomer(tx, customerCode)
	if err != nil {
		return 0, err
	}

	before := customer.PointBalance
	customer.PointBalance += amount
	customer.LifetimeEarned += amount
	if err := tx.Save(customer).Error; err != nil {
		return 0, fmt.Errorf("update balance for %s: %w", customerCode, err)
	}

	entry := models.PointLedgerEntry{
		CustomerID:    customer.ID,
		CustomerCode:  customer.CustomerCode,
		Delta:         amount,
		Reason:        reason,
		BalanceBefore: before,
		BalanceAfter:  customer.PointBalance,
		RefID:         refID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("append ledger entry for %s: %w", customerCode, err)
	}

	return customer.PointBalance, nil
}

// TxRedeem is Redeem running inside a caller-owned transaction.
func (l *Ledger) TxRedeem(tx *gorm.DB, customerCode string, amount int64, reason, refID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	customer, err := lockCustomer(tx, customerCode)
	if err != nil {
		return 0, err
	}

	if customer.PointBalance < amount {
		return 0, ErrInsufficientPoints
	}

	before := customer.PointBalance
	customer.PointBalance -= amount
	if err := tx.Save(customer).Error; err != nil {
		return 0, fmt.Errorf("update balance for %s: %w", customerCode, err)
	}

	entry := models.PointLedgerEntry{
		CustomerID:    customer.ID,
		CustomerCode:  customer.CustomerCode,
		Delta:         -amount,
		Reason:        reason,
		BalanceBefore: before,
		BalanceAfter:  customer.PointBalance,
		RefID:         refID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("append ledger entry for %s: %w", customerCode, err)
	}

	return customer.PointBalance, nil
}

// Balance returns the materialized spendable balance.
func (l *Ledger) Balance(customerCode string) (int64, error) {
	var customer models.Customer
	if err := l.db.Where("customer_code = ?", customerCode).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}
	return customer.PointBalance, nil
}

// LevelFor computes the customer's tier from lifetime earned points, not the
// spendable balance, so redeeming points never demotes anyone.
func (l *Ledger) LevelFor(customerCode string) (int, error) {
	var customer models.Customer
	if err := l.db.Where("customer_code = ?", customerCode).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}
	return LevelForPoints(customer.LifetimeEarned), nil
}

// LevelForPoints maps a lifetime point total onto the threshold table.
func LevelForPoints(lifetime int64) int {
	level := 0
	for i, threshold := range LevelThresholds {
		if lifetime >= threshold {
			level = i
		}
	}
	return level
}

func lockCustomer(tx *gorm.DB, customerCode string) (*models.Customer, error) {
	var customer models.Customer
	if err := database.LockForUpdate(tx).
		Where("customer_code = ? AND is_active = true", customerCode).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("lock customer %s: %w", customerCode, err)
	}
	return &customer, nil
}
