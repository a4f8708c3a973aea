// Package importer parses delimited price-history files into daily data
// appended to an existing holding.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

// Importer reads comma-separated price-history files (header row plus
// data rows, optionally quoted fields) and appends the parsed rows to a
// named holding. Row-level failures are recoverable: the row is logged
// and skipped, and the import continues.
type Importer struct {
	log zerolog.Logger
}

// New creates a new importer
func New(log zerolog.Logger) *Importer {
	return &Importer{
		log: log.With().Str("component", "importer").Logger(),
	}
}

// ImportCSV parses the file at filename and appends each parsed row to
// the holding for symbol. Returns the count of successfully imported
// rows. The whole operation aborts only when the file cannot be opened
// or the symbol is not in the portfolio; malformed rows are skipped.
func (im *Importer) ImportCSV(pf *portfolio.Portfolio, symbol, filename string) (int, error) {
	stock, err := pf.Find(symbol)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // Row widths vary by source format

	// Header row is discarded, not validated.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read header row: %w", err)
	}

	imported := 0
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Unparseable line - recoverable, move to the next row.
			im.log.Warn().Err(err).Msg("Skipping malformed row")
			skipped++
			continue
		}

		mapping, ok := mappingForWidth(len(row))
		if !ok {
			im.log.Debug().Int("fields", len(row)).Msg("Skipping narrow row")
			continue
		}

		closePrice, err := parseNumber(row[mapping.closeIndex])
		if err != nil {
			im.log.Warn().Str("value", row[mapping.closeIndex]).Msg("Skipping row with invalid close price")
			skipped++
			continue
		}

		volume, err := parseNumber(row[mapping.volumeIndex])
		if err != nil {
			im.log.Warn().Str("value", row[mapping.volumeIndex]).Msg("Skipping row with invalid volume")
			skipped++
			continue
		}

		dateField := strings.TrimSpace(row[0])
		date, err := parseDate(dateField)
		if err != nil {
			im.log.Warn().Str("date", dateField).Msg("Skipping row with unparseable date")
			skipped++
			continue
		}

		// Imported values are not re-validated against the input rules;
		// the file is taken as the source of truth.
		stock.AddData(domain.DailyDatum{
			Date:   date,
			Close:  closePrice,
			Volume: volume,
		})
		imported++
	}

	im.log.Info().
		Str("symbol", stock.Symbol).
		Str("file", filename).
		Int("imported", imported).
		Int("skipped", skipped).
		Msg("CSV import finished")

	return imported, nil
}

// parseNumber strips surrounding quotes and thousands-separator commas
// before parsing a real number.
func parseNumber(field string) (float64, error) {
	cleaned := strings.TrimSpace(field)
	cleaned = strings.ReplaceAll(cleaned, `"`, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}

// parseDate tries the date layouts the source formats use: MM/DD/YYYY
// when the field contains a slash, otherwise YYYY-MM-DD; on failure it
// retries YYYY-MM-DD and finally MM/DD/YY.
func parseDate(field string) (time.Time, error) {
	first := "2006-01-02"
	if strings.Contains(field, "/") {
		first = "01/02/2006"
	}

	for _, layout := range []string{first, "2006-01-02", "01/02/06"} {
		if t, err := time.Parse(layout, field); err == nil {
			return domain.TruncateToDate(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", field)
}
