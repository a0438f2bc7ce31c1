// Package settlement ties a payment code, a basket, a gateway outcome, and a
// point-ledger mutation into one atomic business outcome. It is the only
// writer of Transaction rows and the only caller of the ledger during
// settlement.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"bloem/config"
	"bloem/gateway"
	"bloem/ledger"
	"bloem/models"
	"bloem/money"
	"bloem/paycode"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type Orchestrator struct {
	db     *gorm.DB
	codes  *paycode.Store
	points *ledger.Ledger
	gw     gateway.Client
	cfg    config.Settings
}

func New(db *gorm.DB, codes *paycode.Store, points *ledger.Ledger, gw gateway.Client, cfg config.Settings) *Orchestrator {
	return &Orchestrator{db: db, codes: codes, points: points, gw: gw, cfg: cfg}
}

// resolved is everything a settlement attempt derives from a payment code
// before any money moves.
type resolved struct {
	code     *models.PaymentCode
	merchant models.Merchant
	customer string
	charged  int64
	points   int64
}

// prepare resolves the code and validates the point redemption. Points are
// checked before anything else: the check is cheap and a promised redemption
// must never be retracted after the gateway was involved.
func (o *Orchestrator) prepare(code, customerCode string) (*resolved, error) {
	pc, err := o.codes.Resolve(code)
	if err != nil {
		return nil, err
	}

	var merchant models.Merchant
	if err := o.db.Where("merchant_code = ? AND is_active = true", pc.MerchantCode).
		First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("load merchant %s: %w", pc.MerchantCode, err)
	}

	items, err := pc.Items()
	if err != nil {
		return nil, err
	}

	points := pc.PointsRequested
	if points > 0 {
		balance, err := o.points.Balance(customerCode)
		if err != nil {
			return nil, err
		}
		if balance < points {
			return nil, ledger.ErrInsufficientPoints
		}
	} else {
		// The award inside the commit still needs an existing customer row.
		if _, err := o.points.Balance(customerCode); err != nil {
			return nil, err
		}
	}

	return &resolved{
		code:     pc,
		merchant: merchant,
		customer: customerCode,
		charged:  items.Total() - points,
		points:   points,
	}, nil
}

// SettleCash settles a resolved code with no gateway round trip: the code
// redeem, both ledger mutations, and the succeeded transaction row are
// written in one database transaction.
func (o *Orchestrator) SettleCash(code, customerCode string) (*models.Transaction, error) {
	r, err := o.prepare(code, customerCode)
	if err != nil {
		return nil, err
	}

	fb := money.CashFees(r.charged, o.cfg.PlatformFeeRate)
	awarded := money.PointsAwarded(r.charged, o.cfg.PointAwardRate)

	txn := o.newTransaction(r, fb, awarded, models.PaymentMethodCash)
	txn.Status = models.TxStatusSucceeded

	err = o.db.Transaction(func(tx *gorm.DB) error {
		return o.commit(tx, txn)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SETTLEMENT] ✅ Cash settlement code=%s customer=%s amount=%d points_used=%d awarded=%d",
		code, customerCode, r.charged, r.points, awarded)
	return txn, nil
}

// BeginCardPayment starts a card settlement: it validates points, computes
// the fee split, records a pending transaction, and asks the gateway for a
// payment intent routed to the merchant's sub-account with the platform fee
// as the application fee. The code stays unredeemed until the gateway
// confirms.
func (o *Orchestrator) BeginCardPayment(ctx context.Context, code, customerCode string) (*models.Transaction, error) {
	r, err := o.prepare(code, customerCode)
	if err != nil {
		return nil, err
	}
	if r.merchant.GatewayAccountID == "" {
		return nil, fmt.Errorf("%w: merchant %s has no gateway account", ErrMerchantNotFound, r.merchant.MerchantCode)
	}

	fb := money.ComputeFees(r.charged, money.Rates{
		PlatformFeeRate: o.cfg.PlatformFeeRate,
		GatewayFeeRate:  o.cfg.GatewayFeeRate,
		GatewayFixedFee: o.cfg.GatewayFixedFee,
	})
	awarded := money.PointsAwarded(r.charged, o.cfg.PointAwardRate)

	txn := o.newTransaction(r, fb, awarded, models.PaymentMethodCard)
	if err := o.db.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("create pending transaction: %w", err)
	}

	intent, err := o.gw.CreatePaymentRequest(ctx, gateway.PaymentRequest{
		Amount:             r.charged,
		Currency:           o.cfg.Currency,
		DestinationAccount: r.merchant.GatewayAccountID,
		ApplicationFee:     fb.PlatformFee,
		Metadata: map[string]string{
			"customer_code": customerCode,
			"merchant_code": r.merchant.MerchantCode,
			"payment_code":  code,
			"points_used":   fmt.Sprintf("%d", r.points),
		},
	})
	if err != nil {
		// The attempt is dead but the code is not: it stays resolvable for a
		// fresh user-initiated retry until it expires.
		if uerr := o.db.Model(txn).Updates(map[string]any{
			"status": models.TxStatusFailed,
			"note":   "gateway request failed",
		}).Error; uerr != nil {
			log.Printf("[SETTLEMENT] ⚠️ Transaction %s stuck pending after gateway failure: %v", txn.TransactionID, uerr)
		}
		return nil, err
	}

	if err := o.db.Model(txn).Update("gateway_reference", intent.Reference).Error; err != nil {
		return nil, fmt.Errorf("store gateway reference: %w", err)
	}
	txn.GatewayReference = intent.Reference

	log.Printf("[SETTLEMENT] 🕐 Card payment started code=%s customer=%s amount=%d ref=%s",
		code, customerCode, r.charged, intent.Reference)
	return txn, nil
}

// HandleGatewayEvent finalizes a card settlement from a verified gateway
// callback. Repeat deliveries for an already-terminal transaction are a
// no-op, so duplicated or out-of-order webhooks cannot award points twice.
func (o *Orchestrator) HandleGatewayEvent(ev *gateway.Event) (*models.Transaction, error) {
	var txn models.Transaction
	if err := o.db.Where("gateway_reference = ?", ev.Reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("load transaction for %s: %w", ev.Reference, err)
	}

	if txn.Status != models.TxStatusPending {
		log.Printf("[SETTLEMENT] ⚠️ Duplicate callback ref=%s status=%s, ignoring", ev.Reference, txn.Status)
		return &txn, nil
	}

	if ev.Outcome != gateway.OutcomeSucceeded {
		res := o.db.Model(&models.Transaction{}).
			Where("transaction_id = ? AND status = ?", txn.TransactionID, models.TxStatusPending).
			Updates(map[string]any{"status": models.TxStatusFailed, "note": "declined by gateway"})
		if res.Error != nil {
			return nil, fmt.Errorf("mark transaction failed: %w", res.Error)
		}
		log.Printf("[SETTLEMENT] ❌ Card payment failed ref=%s code=%s", ev.Reference, txn.PaymentCode)
		txn.Status = models.TxStatusFailed
		return &txn, nil
	}

	if ev.SettledAmount != 0 && ev.SettledAmount != txn.GrossAmount {
		// Settled for a different amount than requested. Finalize anyway but
		// flag it; money questions go to reconciliation, not to the customer.
		log.Printf("[SETTLEMENT] ⚠️ Settled amount %d != requested %d for ref=%s",
			ev.SettledAmount, txn.GrossAmount, ev.Reference)
		txn.NeedsReconciliation = true
	}

	err := o.db.Transaction(func(tx *gorm.DB) error {
		return o.finalizeCard(tx, &txn, false)
	})
	if errors.Is(err, ledger.ErrInsufficientPoints) {
		// The gateway already captured the funds, but the points promised at
		// BeginCardPayment were spent by a concurrent settlement before the
		// callback arrived. Retrying the redeem can never succeed, so finalize
		// without it and hand the point shortfall to reconciliation.
		log.Printf("[SETTLEMENT] ⚠️ Points spent before capture ref=%s customer=%s, finalizing for reconciliation",
			ev.Reference, txn.CustomerCode)
		txn.NeedsReconciliation = true
		txn.Note = "points spent before capture"
		err = o.db.Transaction(func(tx *gorm.DB) error {
			return o.finalizeCard(tx, &txn, true)
		})
	}
	if err != nil {
		log.Printf("[SETTLEMENT] ❌ Commit failed ref=%s: %v", ev.Reference, err)
		return nil, err
	}

	if err := o.db.Where("transaction_id = ?", txn.TransactionID).First(&txn).Error; err != nil {
		return nil, fmt.Errorf("reload transaction %s: %w", txn.TransactionID, err)
	}
	log.Printf("[SETTLEMENT] ✅ Card settlement finalized ref=%s code=%s amount=%d",
		ev.Reference, txn.PaymentCode, txn.GrossAmount)
	return &txn, nil
}

// finalizeCard applies the writes of a confirmed card settlement. The status
// flip is conditional on still being pending; losing the race to a concurrent
// delivery of the same event is a no-op. With skipRedeem the point redemption
// is left out, recorded on the row for reconciliation instead of applied.
func (o *Orchestrator) finalizeCard(tx *gorm.DB, txn *models.Transaction, skipRedeem bool) error {
	updates := map[string]any{
		"status":               models.TxStatusSucceeded,
		"needs_reconciliation": txn.NeedsReconciliation,
	}
	if txn.Note != "" {
		updates["note"] = txn.Note
	}
	res := tx.Model(&models.Transaction{}).
		Where("transaction_id = ? AND status = ?", txn.TransactionID, models.TxStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("mark transaction succeeded: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if err := o.codes.MarkRedeemed(tx, txn.PaymentCode); err != nil {
		return err
	}
	if skipRedeem {
		if txn.PointsAwarded > 0 {
			reason := fmt.Sprintf("Awarded on settlement %s", txn.PaymentCode)
			if _, err := o.points.TxAward(tx, txn.CustomerCode, txn.PointsAwarded, reason, txn.TransactionID); err != nil {
				return err
			}
		}
		return nil
	}
	return o.applyLedger(tx, txn)
}

// commit applies the three coupled writes of a successful settlement: the
// code redeem, the ledger mutations, and the transaction row. Cash settlement
// runs it directly; card settlement runs the same writes from
// HandleGatewayEvent.
func (o *Orchestrator) commit(tx *gorm.DB, txn *models.Transaction) error {
	if err := o.codes.MarkRedeemed(tx, txn.PaymentCode); err != nil {
		return err
	}
	if err := o.applyLedger(tx, txn); err != nil {
		return err
	}
	if err := tx.Create(txn).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyLedger(tx *gorm.DB, txn *models.Transaction) error {
	if txn.PointsRedeemed > 0 {
		reason := fmt.Sprintf("Redeemed on settlement %s", txn.PaymentCode)
		if _, err := o.points.TxRedeem(tx, txn.CustomerCode, txn.PointsRedeemed, reason, txn.TransactionID); err != nil {
			return err
		}
	}
	if txn.PointsAwarded > 0 {
		reason := fmt.Sprintf("Awarded on settlement %s", txn.PaymentCode)
		if _, err := o.points.TxAward(tx, txn.CustomerCode, txn.PointsAwarded, reason, txn.TransactionID); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) newTransaction(r *resolved, fb money.FeeBreakdown, awarded int64, method string) *models.Transaction {
	txn := &models.Transaction{
		TransactionID:       uuid.New().String(),
		MerchantCode:        r.merchant.MerchantCode,
		CustomerCode:        r.customer,
		PaymentCode:         r.code.Code,
		GrossAmount:         fb.GrossAmount,
		PlatformFee:         fb.PlatformFee,
		GatewayFee:          fb.GatewayFee,
		MerchantNetAmount:   fb.MerchantNetAmount,
		PointsRedeemed:      r.points,
		PointsAwarded:       awarded,
		PaymentMethod:       method,
		Status:              models.TxStatusPending,
		NeedsReconciliation: fb.Clamped,
	}
	if fb.Clamped {
		log.Printf("[SETTLEMENT] ⚠️ Fee reconciliation mismatch code=%s gross=%d fees=%d",
			r.code.Code, fb.GrossAmount, fb.PlatformFee+fb.GatewayFee)
		txn.Note = "merchant net clamped to zero"
	}
	return txn
}
