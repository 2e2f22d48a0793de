package negotiation

import (
	"math"
	"regexp"
	"strconv"
)

// offerPattern matches a standalone 3 or 4 digit number.
var offerPattern = regexp.MustCompile(`\b\d{3,4}\b`)

// ExtractOffer returns the first standalone 3-4 digit number in text.
func ExtractOffer(text string) (int, bool) {
	tok := offerPattern.FindString(text)
	if tok == "" {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MinAcceptablePrice is floor(listed * 0.7), the negotiation floor.
func MinAcceptablePrice(listed int) int {
	return tenths(listed, 7)
}

// SuggestedOffer is floor(listed * 0.9), proposed when the user offers the full price or more.
func SuggestedOffer(listed int) int {
	return tenths(listed, 9)
}

// tenths is floor(listed * n / 10) for 0 <= n <= 10 without overflowing
// for any non-negative listed.
func tenths(listed, n int) int {
	if listed <= 0 {
		return 0
	}
	return listed/10*n + listed%10*n/10
}

// CounterOffer is floor(offer * 1.05), the advisory nudge for low accepted offers.
func CounterOffer(offer int) int {
	return offer * 105 / 100
}

// DiscountPercent is round((listed - offer) / listed * 100).
func DiscountPercent(listed, offer int) int {
	if listed <= 0 {
		return 0
	}
	return int(math.Round(float64(listed-offer) / float64(listed) * 100))
}

// Decision is the classification of one offer against a listed price.
type Decision struct {
	Kind     Kind
	Accepted bool
	// RangePosition is the offer's 0..1 position inside [min, listed) when accepted.
	RangePosition float64
	Discount      int
	Counter       int
	Suggested     int
}

// Classify decides how the engine answers an offer. Acceptance is the single
// test min <= offer < listed; the tiers only pick the wording.
func Classify(listed, offer int) Decision {
	floor := MinAcceptablePrice(listed)

	switch {
	case offer < floor:
		return Decision{Kind: KindTooLow}
	case offer >= listed:
		return Decision{Kind: KindFullPrice, Suggested: SuggestedOffer(listed)}
	}

	d := Decision{
		Accepted:      true,
		Discount:      DiscountPercent(listed, offer),
		RangePosition: float64(offer-floor) / float64(listed-floor),
	}
	switch {
	case d.RangePosition > 0.8:
		d.Kind = KindExcellent
	case d.RangePosition > 0.5:
		d.Kind = KindGood
	default:
		if counter := CounterOffer(offer); counter < listed {
			d.Kind = KindCounter
			d.Counter = counter
		} else {
			d.Kind = KindAccepted
		}
	}
	return d
}
