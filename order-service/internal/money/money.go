// Package money holds the decimal helpers used for every price in the service.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for stored prices.
const Places = 2

var Zero = decimal.New(0, -Places)

// SafeDecimal converts a loosely typed numeric value to a decimal. Missing,
// empty, NaN and otherwise unparseable values become zero.
func SafeDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return Zero
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return Zero
		}
		return *val
	case decimal.NullDecimal:
		if !val.Valid {
			return Zero
		}
		return val.Decimal
	case string:
		return parse(val)
	case *string:
		if val == nil {
			return Zero
		}
		return parse(*val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt32(val)
	case int64:
		return decimal.NewFromInt(val)
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	default:
		return Zero
	}
}

func parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero
	}
	return d
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return decimal.NewFromFloat(f)
}

// Quantize rounds to two places, ties to even.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Places)
}

// Format renders a price with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixedBank(Places)
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(SafeDecimal(v))
	}
	return total
}
