package models

import (
	"errors"
	"testing"
)

func TestParseScanPayloadStorePayment(t *testing.T) {
	raw := `{
		"type": "store_payment",
		"storeId": "M001",
		"items": [
			{"name": "bouquet", "price": 800, "quantity": 1},
			{"name": "wrapping", "price": "100", "quantity": "2"}
		],
		"pointsUsed": 50,
		"totalAmount": 1000,
		"timestamp": "2025-04-01T10:30:00Z"
	}`

	p, err := ParseScanPayload([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.MerchantCode != "M001" {
		t.Errorf("merchant = %s", p.MerchantCode)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d", len(p.Items))
	}
	if p.Items[1].UnitPrice != 100 || p.Items[1].Quantity != 2 {
		t.Errorf("quoted numerics not parsed: %+v", p.Items[1])
	}
	if p.TotalAmount != 1000 || p.PointsUsed != 50 {
		t.Errorf("total=%d points=%d", p.TotalAmount, p.PointsUsed)
	}
	if p.Timestamp.IsZero() {
		t.Errorf("timestamp not parsed")
	}
}

func TestParseScanPayloadPaymentVariant(t *testing.T) {
	raw := `{
		"type": "payment",
		"merchant_id": "M002",
		"items": [{"name": "vase", "price": 1200, "quantity": 1}]
	}`

	p, err := ParseScanPayload([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.MerchantCode != "M002" {
		t.Errorf("merchant = %s", p.MerchantCode)
	}
	if p.TotalAmount != 1200 {
		t.Errorf("total = %d", p.TotalAmount)
	}
}

func TestParseScanPayloadRejectsUnknownShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown type", `{"type":"kiosk_payment","storeId":"M001","items":[{"name":"a","price":1,"quantity":1}]}`},
		{"missing type", `{"storeId":"M001","items":[{"name":"a","price":1,"quantity":1}]}`},
		{"wrong id field for variant", `{"type":"store_payment","merchant_id":"M001","items":[{"name":"a","price":1,"quantity":1}]}`},
		{"empty items", `{"type":"payment","merchant_id":"M001","items":[]}`},
		{"total mismatch", `{"type":"payment","merchant_id":"M001","items":[{"name":"a","price":100,"quantity":1}],"totalAmount":999}`},
		{"negative points", `{"type":"payment","merchant_id":"M001","items":[{"name":"a","price":100,"quantity":1}],"pointsUsed":-5}`},
		{"zero quantity", `{"type":"payment","merchant_id":"M001","items":[{"name":"a","price":100,"quantity":0}]}`},
		{"bad timestamp", `{"type":"payment","merchant_id":"M001","items":[{"name":"a","price":100,"quantity":1}],"timestamp":"yesterday"}`},
		{"not json", `scan me`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseScanPayload([]byte(tc.raw)); !errors.Is(err, ErrUnknownPayload) {
				t.Fatalf("got %v, want ErrUnknownPayload", err)
			}
		})
	}
}

func TestBasketTotal(t *testing.T) {
	b := Basket{
		{Name: "a", UnitPrice: 300, Quantity: 2},
		{Name: "b", UnitPrice: 400, Quantity: 1},
	}
	if b.Total() != 1000 {
		t.Fatalf("total = %d, want 1000", b.Total())
	}
}
