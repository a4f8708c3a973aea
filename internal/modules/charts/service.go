// Package charts provides services for generating chart data from
// price history.
package charts

import (
	"sort"

	"github.com/rs/zerolog"

	"stocktrack/internal/modules/portfolio"
)

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD format
	Value float64 `json:"value"` // Close price
}

// Service provides chart data operations
type Service struct {
	log zerolog.Logger
}

// NewService creates a new charts service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "charts").Logger(),
	}
}

// PriceSeries returns the closing-price series for one holding, sorted
// ascending by date. The holding's own history is left untouched.
// Returns an empty series when the holding has no data yet.
func (s *Service) PriceSeries(pf *portfolio.Portfolio, symbol string) ([]ChartDataPoint, error) {
	stock, err := pf.Find(symbol)
	if err != nil {
		return nil, err
	}

	points := make([]ChartDataPoint, 0, len(stock.History))
	for _, d := range stock.History {
		points = append(points, ChartDataPoint{
			Time:  d.Date.Format("2006-01-02"),
			Value: d.Close,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})

	return points, nil
}
