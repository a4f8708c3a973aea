// Package domain provides the core record types for the portfolio tracker.
package domain

import (
	"strings"
	"time"
)

// DailyDatum is one calendar date's closing price and traded volume for
// a holding. The date carries no time component; it is normalized to
// midnight UTC.
type DailyDatum struct {
	Date   time.Time `json:"date" msgpack:"date"`
	Close  float64   `json:"close" msgpack:"close"`
	Volume float64   `json:"volume" msgpack:"volume"`
}

// Stock is a tracked portfolio holding, identified by symbol.
// History is ordered oldest-to-newest once normalized; appends do not
// deduplicate by date (the persistence layer's primary key does).
type Stock struct {
	Symbol  string       `json:"symbol" msgpack:"symbol"`
	Name    string       `json:"name" msgpack:"name"`
	Shares  float64      `json:"shares" msgpack:"shares"`
	History []DailyDatum `json:"history" msgpack:"history"`
}

// NormalizeSymbol upper-cases and trims a symbol. All symbol comparisons
// go through this so "aapl " and "AAPL" refer to the same holding.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// TruncateToDate drops the time component, returning midnight UTC of the
// same calendar date.
func TruncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewStock validates and creates a holding with an empty history.
// Shares may be any real number; only Buy and Sell enforce a direction
// on share movements.
func NewStock(symbol, name string, shares float64) (*Stock, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	return &Stock{
		Symbol: symbol,
		Name:   name,
		Shares: shares,
	}, nil
}

// NewDailyDatum validates and creates a daily observation.
// Close must be positive and volume non-negative; persisted or imported
// values bypass this and are not re-validated.
func NewDailyDatum(date time.Time, close, volume float64) (DailyDatum, error) {
	if close <= 0 {
		return DailyDatum{}, ErrInvalidPrice
	}
	if volume < 0 {
		return DailyDatum{}, ErrInvalidVolume
	}

	return DailyDatum{
		Date:   TruncateToDate(date),
		Close:  close,
		Volume: volume,
	}, nil
}

// Buy adds quantity to the holding. Quantity must be positive.
func (s *Stock) Buy(quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	s.Shares += quantity
	return nil
}

// Sell subtracts quantity from the holding. Quantity must be positive
// and must not exceed the current share count; on failure the holding is
// left unchanged.
func (s *Stock) Sell(quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > s.Shares {
		return ErrInsufficientShares
	}
	s.Shares -= quantity
	return nil
}

// AddData appends one observation to the history. Duplicate dates are
// tolerated here; only the database's (symbol, date) key dedupes.
func (s *Stock) AddData(d DailyDatum) {
	s.History = append(s.History, d)
}
