package plan

import (
	"errors"
	"testing"
)

func TestLookupKnownTiers(t *testing.T) {
	for _, tier := range Tiers() {
		e, err := Lookup(tier)
		if err != nil {
			t.Fatalf("lookup %s: %v", tier, err)
		}
		if e.Tier != tier {
			t.Fatalf("expected tier %s, got %s", tier, e.Tier)
		}
		if e.BasePriceMills <= 0 {
			t.Fatalf("expected positive base price for %s", tier)
		}
	}
}

func TestLookupUnknownTier(t *testing.T) {
	if _, err := Lookup(Tier("enterprise")); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
	if Valid(Tier("")) {
		t.Fatalf("empty tier must not be valid")
	}
}

func TestProTierConstants(t *testing.T) {
	e, err := Lookup(TierPro)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if e.Included.Minutes != 2000 || e.Included.SMS != 5000 || e.Included.Emails != 25000 {
		t.Fatalf("unexpected pro quotas: %+v", e.Included)
	}
	if e.BasePriceMills != 179000 {
		t.Fatalf("unexpected pro base price: %d", e.BasePriceMills)
	}
	if e.Overage.MinuteMills != 150 || e.Overage.SMSMills != 50 || e.Overage.EmailMills != 10 {
		t.Fatalf("unexpected pro rates: %+v", e.Overage)
	}
}

func TestCentsFromMills(t *testing.T) {
	cases := []struct {
		mills int64
		cents int64
	}{
		{0, 0},
		{10, 1},
		{15, 2},  // 1.5 cents rounds half up
		{14, 1},
		{-15, -2},
		{30_000, 3_000}, // $30 overage
	}
	for _, tc := range cases {
		if got := CentsFromMills(tc.mills); got != tc.cents {
			t.Fatalf("CentsFromMills(%d) = %d, want %d", tc.mills, got, tc.cents)
		}
	}
}

func TestDollarsFromMills(t *testing.T) {
	if got := DollarsFromMills(209_000); got != "209.00" {
		t.Fatalf("expected 209.00, got %q", got)
	}
	if got := DollarsFromMills(5); got != "0.00" {
		t.Fatalf("expected 0.00, got %q", got)
	}
	if got := DollarsFromMills(150); got != "0.15" {
		t.Fatalf("expected 0.15, got %q", got)
	}
}
