package domain

import (
	"fmt"
	"math"
)

// Money is an amount in minor units (cents) of a single currency.
type Money struct {
	amount   int64
	currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, invalid("amount", "must not be negative")
	}
	if !validCurrency(currency) {
		return Money{}, invalid("currency", fmt.Sprintf("%q is not a three-letter code", currency))
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for constants and tests; it panics on invalid input.
func MustMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() int64 { return m.amount }
func (m Money) Currency() string { return m.currency }
func (m Money) IsZero() bool { return m.amount == 0 }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	if other.amount > math.MaxInt64-m.amount {
		return Money{}, invalid("amount", "sum overflows")
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Sub fails rather than going below zero.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	if other.amount > m.amount {
		return Money{}, invalid("amount", "subtraction would go negative")
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Percent returns pct percent of m, truncated to whole minor units.
// pct must be between 0 and 100.
func (m Money) Percent(pct int) (Money, error) {
	if pct < 0 || pct > 100 {
		return Money{}, invalid("percent", "must be between 0 and 100")
	}
	p := int64(pct)
	return Money{amount: m.amount/100*p + m.amount%100*p/100, currency: m.currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.amount/100, m.amount%100, m.currency)
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
