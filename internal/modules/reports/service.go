// Package reports computes per-holding summary reports over daily
// price history.
package reports

import (
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

// smaPeriod is the window for the trend line in reports.
const smaPeriod = 5

// StockReport is the summary for one holding over its date-sorted
// history. Price figures are zero when the holding has no history;
// check Records before reading them.
type StockReport struct {
	Symbol         string
	Name           string
	Shares         float64
	Records        int
	Current        float64 // Most recent close
	Start          float64 // Oldest close in the range
	High           float64
	Low            float64
	Change         float64 // Current - Start
	PercentChange  float64 // Zero when Start is zero
	PortfolioValue float64 // Current * Shares
	Mean           float64
	StdDev         float64 // Sample standard deviation
	TrendSMA       float64 // Latest smaPeriod-day simple moving average
	HasTrend       bool    // False when fewer than smaPeriod records
	History        []domain.DailyDatum
}

// Service generates portfolio reports
type Service struct {
	log zerolog.Logger
}

// NewService creates a new report service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "reports").Logger(),
	}
}

// ForPortfolio builds a report for every holding, in portfolio order.
func (s *Service) ForPortfolio(pf *portfolio.Portfolio) []StockReport {
	result := make([]StockReport, 0, pf.Len())
	for _, stock := range pf.Stocks() {
		result = append(result, s.ForStock(stock))
	}
	return result
}

// ForStock builds the summary report for one holding. The stock's
// history is sorted by date in place as a side effect, matching the
// normalization every other read path applies.
func (s *Service) ForStock(stock *domain.Stock) StockReport {
	portfolio.SortHistory(stock)

	report := StockReport{
		Symbol:  stock.Symbol,
		Name:    stock.Name,
		Shares:  stock.Shares,
		Records: len(stock.History),
		History: stock.History,
	}

	if len(stock.History) == 0 {
		return report
	}

	closes := make([]float64, len(stock.History))
	for i, d := range stock.History {
		closes[i] = d.Close
	}

	report.Start = closes[0]
	report.Current = closes[len(closes)-1]
	report.High = closes[0]
	report.Low = closes[0]
	for _, c := range closes {
		if c > report.High {
			report.High = c
		}
		if c < report.Low {
			report.Low = c
		}
	}

	report.Change = report.Current - report.Start
	if report.Start != 0 {
		report.PercentChange = report.Change / report.Start * 100
	}
	report.PortfolioValue = report.Current * stock.Shares

	report.Mean = stat.Mean(closes, nil)
	if len(closes) > 1 {
		report.StdDev = stat.StdDev(closes, nil)
	}

	if len(closes) >= smaPeriod {
		sma := talib.Sma(closes, smaPeriod)
		report.TrendSMA = sma[len(sma)-1]
		report.HasTrend = true
	}

	return report
}
