// Package paycode issues and redeems the short-lived payment codes that bind
// a merchant-prepared basket to a customer redemption window.
package paycode

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloem/helpers"
	"bloem/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCodeNotFound        = errors.New("payment code not found")
	ErrCodeExpired         = errors.New("payment code expired")
	ErrCodeAlreadyRedeemed = errors.New("payment code already redeemed")
	ErrEmptyBasket         = errors.New("basket has no items")
	ErrPointsExceedTotal   = errors.New("requested points exceed basket total")
	ErrCodeSpaceExhausted  = errors.New("could not allocate an unused code")
)

const codeLength = 5

// issueAttempts bounds the collision retry loop. With 100k possible codes and
// a 5 minute TTL the live set stays tiny, so a handful of retries is plenty.
const issueAttempts = 20

type Store struct {
	db  *gorm.DB
	ttl time.Duration
}

func New(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Issue creates a code for a finalized basket. The code is unique among
// currently-live (unexpired, unredeemed) codes; expired and redeemed codes
// may be reused.
func (s *Store) Issue(merchantCode string, basket models.Basket, pointsRequested int64) (*models.PaymentCode, error) {
	if len(basket) == 0 {
		return nil, ErrEmptyBasket
	}
	if pointsRequested < 0 || pointsRequested > basket.Total() {
		return nil, ErrPointsExceedTotal
	}

	raw, err := json.Marshal(basket)
	if err != nil {
		return nil, fmt.Errorf("encode basket: %w", err)
	}

	now := time.Now()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		code := helpers.GenerateNumericCode(codeLength)

		var live int64
		if err := s.db.Model(&models.PaymentCode{}).
			Where("code = ? AND redeemed_at IS NULL AND expires_at > ?", code, now).
			Count(&live).Error; err != nil {
			return nil, fmt.Errorf("check code collision: %w", err)
		}
		if live > 0 {
			continue
		}

		pc := models.PaymentCode{
			Code:            code,
			MerchantCode:    merchantCode,
			Basket:          datatypes.JSON(raw),
			PointsRequested: pointsRequested,
			IssuedAt:        now,
			ExpiresAt:       now.Add(s.ttl),
		}
		if err := s.db.Create(&pc).Error; err != nil {
			return nil, fmt.Errorf("create payment code: %w", err)
		}
		return &pc, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// Resolve looks a code up without mutating it. Expiry is checked lazily here;
// an expired code reports Expired regardless of its redemption state.
func (s *Store) Resolve(code string) (*models.PaymentCode, error) {
	var pc models.PaymentCode
	if err := s.db.Where("code = ?", code).Order("id DESC").First(&pc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("resolve code %s: %w", code, err)
	}

	if time.Now().After(pc.ExpiresAt) {
		return nil, ErrCodeExpired
	}
	if pc.RedeemedAt != nil {
		return nil, ErrCodeAlreadyRedeemed
	}
	return &pc, nil
}

// MarkRedeemed transitions a code to its terminal state. The check-then-set
// is a single conditional UPDATE; the affected-row count is the only
// double-spend guard, so two concurrent redemptions cannot both pass.
// More than one row can match if concurrent Issue calls ever landed the same
// live code; all the duplicates go terminal together and the redemption counts
// once.
func (s *Store) MarkRedeemed(tx *gorm.DB, code string) error {
	now := time.Now()
	res := tx.Model(&models.PaymentCode{}).
		Where("code = ? AND redeemed_at IS NULL AND expires_at > ?", code, now).
		Update("redeemed_at", now)
	if res.Error != nil {
		return fmt.Errorf("redeem code %s: %w", code, res.Error)
	}
	if res.RowsAffected >= 1 {
		return nil
	}

	// Nothing matched; re-read to say why.
	var pc models.PaymentCode
	if err := tx.Where("code = ?", code).Order("id DESC").First(&pc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("classify redeem failure for %s: %w", code, err)
	}
	if now.After(pc.ExpiresAt) {
		return ErrCodeExpired
	}
	return ErrCodeAlreadyRedeemed
}
