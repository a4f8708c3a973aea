// Package portfolio holds the live in-memory collection of holdings for
// the running session and provides basic lookup and mutation.
package portfolio

import (
	"sort"

	"github.com/rs/zerolog"

	"stocktrack/internal/domain"
)

// Portfolio is the session's ordered collection of holdings. Lookup is a
// linear scan; expected sizes are a few dozen symbols. Not safe for
// concurrent use - all operations run on the one active goroutine.
type Portfolio struct {
	stocks []*domain.Stock
	log    zerolog.Logger
}

// New creates an empty portfolio
func New(log zerolog.Logger) *Portfolio {
	return &Portfolio{
		log: log.With().Str("component", "portfolio").Logger(),
	}
}

// Add validates and appends a new holding with an empty history.
// Returns ErrDuplicateSymbol when the normalized symbol is already
// tracked; the portfolio is left unchanged on any failure.
func (p *Portfolio) Add(symbol, name string, shares float64) (*domain.Stock, error) {
	stock, err := domain.NewStock(symbol, name, shares)
	if err != nil {
		return nil, err
	}

	if _, err := p.Find(stock.Symbol); err == nil {
		return nil, domain.ErrDuplicateSymbol
	}

	p.stocks = append(p.stocks, stock)
	p.log.Debug().Str("symbol", stock.Symbol).Float64("shares", stock.Shares).Msg("Stock added")
	return stock, nil
}

// Find returns the holding for a symbol, or ErrStockNotFound.
func (p *Portfolio) Find(symbol string) (*domain.Stock, error) {
	symbol = domain.NormalizeSymbol(symbol)
	for _, s := range p.stocks {
		if s.Symbol == symbol {
			return s, nil
		}
	}
	return nil, domain.ErrStockNotFound
}

// Remove deletes a holding and all of its history.
func (p *Portfolio) Remove(symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)
	for i, s := range p.stocks {
		if s.Symbol == symbol {
			p.stocks = append(p.stocks[:i], p.stocks[i+1:]...)
			p.log.Debug().Str("symbol", symbol).Msg("Stock removed")
			return nil
		}
	}
	return domain.ErrStockNotFound
}

// Buy adds shares to an existing holding.
func (p *Portfolio) Buy(symbol string, quantity float64) error {
	stock, err := p.Find(symbol)
	if err != nil {
		return err
	}
	return stock.Buy(quantity)
}

// Sell subtracts shares from an existing holding.
func (p *Portfolio) Sell(symbol string, quantity float64) error {
	stock, err := p.Find(symbol)
	if err != nil {
		return err
	}
	return stock.Sell(quantity)
}

// AppendDailyDatum appends one observation to a holding's history.
// Dates are not deduplicated in memory.
func (p *Portfolio) AppendDailyDatum(symbol string, d domain.DailyDatum) error {
	stock, err := p.Find(symbol)
	if err != nil {
		return err
	}
	stock.AddData(d)
	return nil
}

// Restore appends a reconstructed holding without input validation.
// Used when rebuilding the portfolio from storage or a snapshot, where
// persisted values are taken as-is.
func (p *Portfolio) Restore(stock *domain.Stock) {
	p.stocks = append(p.stocks, stock)
}

// Stocks returns the live holdings in their current order. Callers must
// not retain the slice across mutations.
func (p *Portfolio) Stocks() []*domain.Stock {
	return p.stocks
}

// Symbols returns the tracked symbols in their current order.
func (p *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.stocks))
	for _, s := range p.stocks {
		symbols = append(symbols, s.Symbol)
	}
	return symbols
}

// Len returns the number of holdings
func (p *Portfolio) Len() int {
	return len(p.stocks)
}

// Clear removes all holdings. Used before a full reload from storage.
func (p *Portfolio) Clear() {
	p.stocks = nil
}

// SortBySymbol sorts the holdings ascending by symbol. Stable, so equal
// symbols (which should not occur) keep their relative order.
func (p *Portfolio) SortBySymbol() {
	sort.SliceStable(p.stocks, func(i, j int) bool {
		return p.stocks[i].Symbol < p.stocks[j].Symbol
	})
}

// SortHistoryByDate sorts every holding's history ascending by date.
// Stable and idempotent.
func (p *Portfolio) SortHistoryByDate() {
	for _, s := range p.stocks {
		SortHistory(s)
	}
}

// SortHistory sorts one holding's history ascending by date.
func SortHistory(s *domain.Stock) {
	sort.SliceStable(s.History, func(i, j int) bool {
		return s.History[i].Date.Before(s.History[j].Date)
	})
}
