// Package targeting evaluates DSP targeting rules against ad requests.
package targeting

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMalformedRule indicates a targeting rule that could not be decoded.
// A malformed rule disqualifies only the DSP that owns it.
var ErrMalformedRule = errors.New("malformed targeting rule")

// GeoFloorPrice is the fixed price offered when only the geo attribute
// matches, regardless of the DSP's base price.
var GeoFloorPrice = decimal.NewFromFloat(1.0)

// Rule is a DSP's attribute-match predicate. Attributes compare with
// case-sensitive equality.
type Rule struct {
	Geo    string `json:"geo"`
	Device string `json:"device"`
}

// ParseRule decodes a serialized targeting rule.
func ParseRule(raw string) (Rule, error) {
	var rule Rule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	return rule, nil
}

// Evaluate prices one DSP's interest in a request. A full geo+device match
// pays the DSP's base price, a geo-only match pays the fixed floor, and
// anything else returns zero (no bid).
func Evaluate(rule Rule, geo, device string, basePrice decimal.Decimal) decimal.Decimal {
	switch {
	case rule.Geo == geo && rule.Device == device:
		return basePrice
	case rule.Geo == geo:
		return GeoFloorPrice
	default:
		return decimal.Zero
	}
}
