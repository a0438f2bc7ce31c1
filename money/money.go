// Package money holds the fee and point arithmetic. Everything here is pure:
// integer minor-unit amounts in, integer minor-unit amounts out, no I/O.
package money

import "github.com/shopspring/decimal"

// FeeBreakdown splits a settled amount between the platform, the card
// gateway, and the merchant. GrossAmount == PlatformFee + GatewayFee +
// MerchantNetAmount holds exactly unless Clamped is set.
type FeeBreakdown struct {
	GrossAmount       int64 `json:"gross_amount"`
	PlatformFee       int64 `json:"platform_fee"`
	GatewayFee        int64 `json:"gateway_fee"`
	MerchantNetAmount int64 `json:"merchant_net_amount"`
	// Clamped means fees exceeded the gross amount and the merchant net was
	// held at zero; such settlements need manual reconciliation.
	Clamped bool `json:"clamped"`
}

// Rates carries the configured fee constants. GatewayFeeRate/GatewayFixedFee
// apply only to card settlements.
type Rates struct {
	PlatformFeeRate decimal.Decimal
	GatewayFeeRate  decimal.Decimal
	GatewayFixedFee int64
}

// roundHalfUp rounds gross×rate to the nearest minor unit, half away from
// zero. decimal.Round implements half-up, which is what the ledger format
// requires; floor/ceil would drift from the reviewed totals.
func roundHalfUp(gross int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(gross).Mul(rate).Round(0).IntPart()
}

// ComputeFees computes the card-settlement split. The platform fee and the
// gateway fee are each rounded independently off the gross amount; the
// merchant keeps the remainder, clamped at zero.
func ComputeFees(gross int64, rates Rates) FeeBreakdown {
	if gross < 0 {
		gross = 0
	}

	platformFee := roundHalfUp(gross, rates.PlatformFeeRate)
	gatewayFee := roundHalfUp(gross, rates.GatewayFeeRate) + rates.GatewayFixedFee

	net := gross - platformFee - gatewayFee
	clamped := false
	if net < 0 {
		net = 0
		clamped = true
	}

	return FeeBreakdown{
		GrossAmount:       gross,
		PlatformFee:       platformFee,
		GatewayFee:        gatewayFee,
		MerchantNetAmount: net,
		Clamped:           clamped,
	}
}

// CashFees is the cash-settlement split: no processor, no gateway fee.
func CashFees(gross int64, platformRate decimal.Decimal) FeeBreakdown {
	return ComputeFees(gross, Rates{PlatformFeeRate: platformRate})
}

// PointsAwarded converts a settled amount into earned points. Always floored
// so the payout never exceeds what the settled amount justifies.
func PointsAwarded(settled int64, rate decimal.Decimal) int64 {
	if settled <= 0 {
		return 0
	}
	return decimal.NewFromInt(settled).Mul(rate).Floor().IntPart()
}
