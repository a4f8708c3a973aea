// Package acquisition fetches daily price history from a remote
// financial data source via browser automation.
package acquisition

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

// Fetcher retrieves daily data for every holding in a portfolio over a
// date range and returns the number of records appended.
type Fetcher interface {
	FetchRange(ctx context.Context, start, end time.Time, pf *portfolio.Portfolio) (int, error)
}

// rowDateLayout is the date format rendered in the history table.
const rowDateLayout = "Jan 02, 2006"

// extractRowsJS pulls every table row's cell texts out of the page.
const extractRowsJS = `Array.from(document.querySelectorAll('table tr'))
	.map(tr => Array.from(tr.querySelectorAll('td')).map(td => td.textContent.trim()))`

// YahooFetcher scrapes the Yahoo Finance history page for each holding
// with a headless Chrome instance.
type YahooFetcher struct {
	headless bool
	timeout  time.Duration // Per-stock page load limit
	log      zerolog.Logger
}

// NewYahooFetcher creates a new scraping fetcher
func NewYahooFetcher(headless bool, timeout time.Duration, log zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		headless: headless,
		timeout:  timeout,
		log:      log.With().Str("component", "acquisition").Logger(),
	}
}

// FetchRange scrapes the history page for every holding and appends the
// parsed rows to each stock's history. Returns the total record count.
// Stocks are processed sequentially; a retrieval failure aborts with the
// count accumulated so far.
func (f *YahooFetcher) FetchRange(ctx context.Context, start, end time.Time, pf *portfolio.Portfolio) (int, error) {
	total := 0
	for _, stock := range pf.Stocks() {
		url := historyURL(stock.Symbol, start, end)

		rows, err := f.fetchRows(ctx, url)
		if err != nil {
			return total, fmt.Errorf("failed to retrieve history for %s: %w", stock.Symbol, err)
		}

		count := 0
		for _, cells := range rows {
			datum, ok := parseHistoryRow(cells)
			if !ok {
				// Dividend/split rows and the header render with a
				// different cell count and are skipped.
				continue
			}
			stock.AddData(datum)
			count++
		}

		f.log.Info().Str("symbol", stock.Symbol).Int("records", count).Msg("Retrieved history rows")
		total += count
	}

	return total, nil
}

// fetchRows loads a page in headless Chrome and extracts all table rows.
func (f *YahooFetcher) fetchRows(ctx context.Context, url string) ([][]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, f.timeout)
	defer runCancel()

	var rows [][]string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("table", chromedp.ByQuery),
		chromedp.Evaluate(extractRowsJS, &rows),
	)
	if err != nil {
		return nil, fmt.Errorf("browser automation failed: %w", err)
	}

	return rows, nil
}

// historyURL builds the history page URL for a symbol and date range.
func historyURL(symbol string, start, end time.Time) string {
	return fmt.Sprintf(
		"https://finance.yahoo.com/quote/%s/history?period1=%d&period2=%d&interval=1d&filter=history&frequency=1d",
		symbol, start.Unix(), end.Unix(),
	)
}

// parseHistoryRow turns one table row into a daily datum. Only standard
// 7-cell rows qualify: date, open, high, low, close, adjusted close,
// volume. Anything else (headers, dividends, splits) reports false.
func parseHistoryRow(cells []string) (domain.DailyDatum, bool) {
	if len(cells) != 7 {
		return domain.DailyDatum{}, false
	}

	date, err := time.Parse(rowDateLayout, strings.TrimSpace(cells[0]))
	if err != nil {
		return domain.DailyDatum{}, false
	}

	closePrice, err := parseGroupedNumber(cells[5])
	if err != nil {
		return domain.DailyDatum{}, false
	}

	volume, err := parseGroupedNumber(cells[6])
	if err != nil {
		return domain.DailyDatum{}, false
	}

	return domain.DailyDatum{
		Date:   domain.TruncateToDate(date),
		Close:  closePrice,
		Volume: volume,
	}, true
}

// parseGroupedNumber parses a real number that may use comma grouping.
func parseGroupedNumber(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
