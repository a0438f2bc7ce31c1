package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// FlexibleInt tolerates the numeric sloppiness of scanner clients, which send
// prices and point counts as JSON numbers or quoted strings depending on the
// app version.
type FlexibleInt int64

func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	var i int64
	var f float64
	var s string

	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexibleInt(i)
		return nil
	}

	if err := json.Unmarshal(data, &f); err == nil {
		*fi = FlexibleInt(int64(f))
		return nil
	}

	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("unable to parse %q as integer", s)
		}
		*fi = FlexibleInt(parsed)
		return nil
	}

	return fmt.Errorf("unable to parse %s as FlexibleInt", string(data))
}

const (
	PayloadTypeStorePayment = "store_payment"
	PayloadTypePayment      = "payment"
)

var ErrUnknownPayload = errors.New("unrecognized scan payload")

// ScanPayload is the single internal form of a scanned payment payload.
// Exactly two wire shapes are accepted, selected by the "type" tag; anything
// else is rejected rather than guessed at.
type ScanPayload struct {
	MerchantCode string
	Items        Basket
	PointsUsed   int64
	TotalAmount  int64
	Timestamp    time.Time
}

type scanPayloadWire struct {
	Type       string `json:"type"`
	StoreID    string `json:"storeId"`
	MerchantID string `json:"merchant_id"`
	Items      []struct {
		Name     string      `json:"name"`
		Price    FlexibleInt `json:"price"`
		Quantity FlexibleInt `json:"quantity"`
	} `json:"items"`
	PointsUsed  FlexibleInt `json:"pointsUsed"`
	TotalAmount FlexibleInt `json:"totalAmount"`
	Timestamp   string      `json:"timestamp"`
}

func ParseScanPayload(raw []byte) (*ScanPayload, error) {
	var wire scanPayloadWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPayload, err)
	}

	var merchantCode string
	switch wire.Type {
	case PayloadTypeStorePayment:
		merchantCode = wire.StoreID
	case PayloadTypePayment:
		merchantCode = wire.MerchantID
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnknownPayload, wire.Type)
	}
	if merchantCode == "" {
		return nil, fmt.Errorf("%w: missing merchant identifier", ErrUnknownPayload)
	}

	if len(wire.Items) == 0 {
		return nil, fmt.Errorf("%w: empty basket", ErrUnknownPayload)
	}
	items := make(Basket, 0, len(wire.Items))
	for _, it := range wire.Items {
		if it.Name == "" || it.Price < 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid line item %q", ErrUnknownPayload, it.Name)
		}
		items = append(items, LineItem{
			Name:      it.Name,
			UnitPrice: int64(it.Price),
			Quantity:  int64(it.Quantity),
		})
	}

	if wire.PointsUsed < 0 {
		return nil, fmt.Errorf("%w: negative pointsUsed", ErrUnknownPayload)
	}
	if wire.TotalAmount != 0 && int64(wire.TotalAmount) != items.Total() {
		return nil, fmt.Errorf("%w: totalAmount %d does not match items total %d",
			ErrUnknownPayload, wire.TotalAmount, items.Total())
	}

	var ts time.Time
	if wire.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, wire.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q", ErrUnknownPayload, wire.Timestamp)
		}
		ts = parsed
	}

	return &ScanPayload{
		MerchantCode: merchantCode,
		Items:        items,
		PointsUsed:   int64(wire.PointsUsed),
		TotalAmount:  items.Total(),
		Timestamp:    ts,
	}, nil
}
