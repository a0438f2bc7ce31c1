package ledger

import (
	"errors"
	"sync"
	"testing"

	"bloem/database"
	"bloem/models"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, code string, balance, lifetime int64) {
	t.Helper()
	c := models.Customer{
		CustomerCode:   code,
		PointBalance:   balance,
		LifetimeEarned: lifetime,
		IsActive:       true,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
}

func TestAwardThenRedeemRoundTrip(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, "C001", 120, 120)
	l := New(db)

	after, err := l.Award("C001", 80, "settlement award", "ref-1")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if after != 200 {
		t.Fatalf("balance after award = %d, want 200", after)
	}

	after, err = l.Redeem("C001", 80, "settlement redeem", "ref-2")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if after != 120 {
		t.Fatalf("balance after redeem = %d, want 120", after)
	}

	var entries []models.PointLedgerEntry
	if err := db.Where("customer_code = ?", "C001").Order("id").Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Delta != 80 || entries[1].Delta != -80 {
		t.Fatalf("unexpected deltas: %d, %d", entries[0].Delta, entries[1].Delta)
	}
	if entries[1].BalanceAfter != 120 {
		t.Fatalf("final BalanceAfter = %d, want 120", entries[1].BalanceAfter)
	}
}

func TestRedeemInsufficientLeavesStateUntouched(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, "C001", 30, 30)
	l := New(db)

	_, err := l.Redeem("C001", 50, "too much", "ref-1")
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	balance, err := l.Balance("C001")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 30 {
		t.Fatalf("balance changed to %d, want 30", balance)
	}

	var count int64
	if err := db.Model(&models.PointLedgerEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no ledger entries, got %d", count)
	}
}

func TestConcurrentRedeemNeverOverdraws(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, "C001", 50, 50)
	l := New(db)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Redeem("C001", 10, "concurrent redeem", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientPoints) {
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 redemptions to succeed, got %d", succeeded)
	}

	balance, err := l.Balance("C001")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("final balance = %d, want 0", balance)
	}
}

func TestRedeemValidation(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, "C001", 100, 100)
	l := New(db)

	if _, err := l.Redeem("C001", 0, "zero", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := l.Redeem("C001", -5, "negative", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := l.Redeem("NOPE", 5, "missing", ""); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("unknown customer: got %v, want ErrCustomerNotFound", err)
	}
}

func TestLevelForUsesLifetimeEarned(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, "C001", 0, 0)
	l := New(db)

	if _, err := l.Award("C001", 600, "history", ""); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := l.Redeem("C001", 550, "spend down", ""); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	level, err := l.LevelFor("C001")
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	// Lifetime earned is 600 even though only 50 points remain spendable.
	if level != 2 {
		t.Fatalf("level = %d, want 2", level)
	}
}

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		lifetime int64
		want     int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{499, 1},
		{500, 2},
		{999, 2},
		{1000, 3},
		{50000, 3},
	}
	for _, tc := range cases {
		if got := LevelForPoints(tc.lifetime); got != tc.want {
			t.Errorf("LevelForPoints(%d) = %d, want %d", tc.lifetime, got, tc.want)
		}
	}
}
