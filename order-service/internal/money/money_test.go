package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSafeDecimal(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "0"},
		{name: "empty string", in: "", want: "0"},
		{name: "blank string", in: "   ", want: "0"},
		{name: "nan", in: "NaN", want: "0"},
		{name: "garbage", in: "12abc", want: "0"},
		{name: "numeric string", in: "100.50", want: "100.5"},
		{name: "nil string pointer", in: (*string)(nil), want: "0"},
		{name: "string pointer", in: str("7.25"), want: "7.25"},
		{name: "int", in: 3, want: "3"},
		{name: "float nan", in: math.NaN(), want: "0"},
		{name: "float inf", in: math.Inf(1), want: "0"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "invalid null decimal", in: decimal.NullDecimal{}, want: "0"},
		{name: "unsupported type", in: struct{}{}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeDecimal(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestQuantize_HalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0.125", want: "0.12"},
		{in: "0.135", want: "0.14"},
		{in: "2.005", want: "2.00"},
		{in: "2.0051", want: "2.01"},
		{in: "-0.125", want: "-0.12"},
		{in: "236", want: "236.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(Quantize(decimal.RequireFromString(tt.in))))
		})
	}
}

func TestSum(t *testing.T) {
	total := Sum(decimal.RequireFromString("236.00"), decimal.RequireFromString("49.99"))
	assert.Equal(t, "285.99", Format(total))
	assert.Equal(t, "0.00", Format(Sum()))
}
