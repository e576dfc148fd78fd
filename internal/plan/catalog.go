package plan

import (
	"errors"
	"fmt"
)

// Tier is a subscription pricing bracket. The catalog is closed over this
// enumeration; an account carrying any other value is an internal-consistency
// error, not user input.
type Tier string

const (
	TierStarter  Tier = "starter"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

var ErrUnknownTier = errors.New("plan: unknown tier")

// Quotas are the per-cycle included allowances for each metered resource.
type Quotas struct {
	Minutes int64
	SMS     int64
	Emails  int64
}

// Rates are per-unit overage prices in mills (1/1000 USD).
// Mills keep sub-cent rates like $0.005/email exact in integer arithmetic.
type Rates struct {
	MinuteMills int64
	SMSMills    int64
	EmailMills  int64
}

// Entry is one immutable catalog row.
type Entry struct {
	Tier Tier

	// BasePriceMills is the recurring subscription price in mills.
	BasePriceMills int64

	Included Quotas
	Overage  Rates
}

// catalog is process-wide static configuration. Prices and quotas change only
// with a deploy; historical usage records snapshot the values they billed at.
var catalog = map[Tier]Entry{
	TierStarter: {
		Tier:           TierStarter,
		BasePriceMills: 179_000,
		Included:       Quotas{Minutes: 500, SMS: 1_000, Emails: 5_000},
		Overage:        Rates{MinuteMills: 200, SMSMills: 80, EmailMills: 20},
	},
	TierPro: {
		Tier:           TierPro,
		BasePriceMills: 179_000,
		Included:       Quotas{Minutes: 2_000, SMS: 5_000, Emails: 25_000},
		Overage:        Rates{MinuteMills: 150, SMSMills: 50, EmailMills: 10},
	},
	TierBusiness: {
		Tier:           TierBusiness,
		BasePriceMills: 299_000,
		Included:       Quotas{Minutes: 10_000, SMS: 25_000, Emails: 100_000},
		Overage:        Rates{MinuteMills: 100, SMSMills: 30, EmailMills: 5},
	},
}

// Lookup resolves a tier to its catalog entry.
// Unknown tiers fail fast; callers must treat this as an internal error.
func Lookup(t Tier) (Entry, error) {
	e, ok := catalog[t]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return e, nil
}

// Valid reports whether t is part of the closed tier enumeration.
func Valid(t Tier) bool {
	_, ok := catalog[t]
	return ok
}

// Tiers returns the catalog tiers in display order.
func Tiers() []Tier {
	return []Tier{TierStarter, TierPro, TierBusiness}
}

// CentsFromMills converts a mills amount to whole cents, rounding half up.
// Used at the payment boundary; internal arithmetic stays in mills.
func CentsFromMills(mills int64) int64 {
	if mills < 0 {
		return -CentsFromMills(-mills)
	}
	return (mills + 5) / 10
}

// DollarsFromMills formats a mills amount as a decimal dollar string for
// human-facing summaries (e.g. 209_000 -> "209.00").
func DollarsFromMills(mills int64) string {
	neg := ""
	if mills < 0 {
		neg = "-"
		mills = -mills
	}
	return fmt.Sprintf("%s%d.%02d", neg, mills/1000, (mills%1000)/10)
}
