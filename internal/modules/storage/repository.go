// Package storage provides the durable round-trip of the portfolio to a
// local SQLite file with two tables: stocks and dailyData.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

// ConflictPolicy controls what Save does when a row's primary key is
// already present in the file. The historical behavior of this program
// is PolicyIgnore: re-saving never refreshes rows already on disk.
type ConflictPolicy string

const (
	// PolicyIgnore silently skips conflicting rows (insert-or-ignore).
	PolicyIgnore ConflictPolicy = "ignore"
	// PolicyUpdate replaces conflicting rows (insert-or-replace).
	PolicyUpdate ConflictPolicy = "update"
	// PolicyFail surfaces the constraint violation to the caller.
	PolicyFail ConflictPolicy = "fail"
)

// PolicyFromString maps a configuration value to a ConflictPolicy,
// defaulting to PolicyIgnore for unknown values.
func PolicyFromString(s string) ConflictPolicy {
	switch ConflictPolicy(s) {
	case PolicyUpdate:
		return PolicyUpdate
	case PolicyFail:
		return PolicyFail
	default:
		return PolicyIgnore
	}
}

// insertVerb returns the SQLite insert statement prefix for the policy.
func (p ConflictPolicy) insertVerb() string {
	switch p {
	case PolicyUpdate:
		return "INSERT OR REPLACE"
	case PolicyFail:
		return "INSERT"
	default:
		return "INSERT OR IGNORE"
	}
}

// Repository handles portfolio persistence operations.
// Dates round-trip through the configured textual layout; write and read
// must use the same layout or existing rows become unreadable.
type Repository struct {
	db         *sql.DB
	dateLayout string
	policy     ConflictPolicy
	log        zerolog.Logger
}

// NewRepository creates a new persistence repository
func NewRepository(db *sql.DB, dateLayout string, policy ConflictPolicy, log zerolog.Logger) *Repository {
	return &Repository{
		db:         db,
		dateLayout: dateLayout,
		policy:     policy,
		log:        log.With().Str("repo", "storage").Logger(),
	}
}

// Init idempotently ensures both tables exist. Safe to call on an
// already-initialized file.
func (r *Repository) Init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS stocks (
		symbol TEXT NOT NULL PRIMARY KEY,
		name TEXT,
		shares REAL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create stocks table: %w", err)
	}

	_, err = r.db.Exec(`CREATE TABLE IF NOT EXISTS dailyData (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		price REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, date)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create dailyData table: %w", err)
	}

	return nil
}

// Save writes every holding and its history to the file. Each insert is
// committed individually; no transaction spans the whole save. Conflict
// handling follows the repository's ConflictPolicy.
func (r *Repository) Save(pf *portfolio.Portfolio) error {
	stockInsert := r.policy.insertVerb() + " INTO stocks (symbol, name, shares) VALUES (?, ?, ?)"
	datumInsert := r.policy.insertVerb() + " INTO dailyData (symbol, date, price, volume) VALUES (?, ?, ?, ?)"

	var stockRows, datumRows int
	for _, stock := range pf.Stocks() {
		if _, err := r.db.Exec(stockInsert, stock.Symbol, stock.Name, stock.Shares); err != nil {
			return fmt.Errorf("failed to save stock %s: %w", stock.Symbol, err)
		}
		stockRows++

		for _, d := range stock.History {
			dateText := d.Date.Format(r.dateLayout)
			if _, err := r.db.Exec(datumInsert, stock.Symbol, dateText, d.Close, d.Volume); err != nil {
				return fmt.Errorf("failed to save daily data %s %s: %w", stock.Symbol, dateText, err)
			}
			datumRows++
		}
	}

	r.log.Info().
		Int("stocks", stockRows).
		Int("daily_rows", datumRows).
		Str("policy", string(r.policy)).
		Msg("Portfolio saved")

	return nil
}

// Load clears the in-memory portfolio and reconstructs it fully from the
// file, then normalizes sort order (symbols ascending, each history
// ascending by date).
func (r *Repository) Load(pf *portfolio.Portfolio) error {
	pf.Clear()

	rows, err := r.db.Query("SELECT symbol, name, shares FROM stocks ORDER BY symbol ASC")
	if err != nil {
		return fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	type stockRow struct {
		symbol string
		name   sql.NullString
		shares sql.NullFloat64
	}

	var stockRows []stockRow
	for rows.Next() {
		var sr stockRow
		if err := rows.Scan(&sr.symbol, &sr.name, &sr.shares); err != nil {
			return fmt.Errorf("failed to scan stock: %w", err)
		}
		stockRows = append(stockRows, sr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating stocks: %w", err)
	}

	for _, sr := range stockRows {
		history, err := r.loadHistory(sr.symbol)
		if err != nil {
			return err
		}

		// Persisted rows are taken as-is, without input validation.
		pf.Restore(&domain.Stock{
			Symbol:  domain.NormalizeSymbol(sr.symbol),
			Name:    sr.name.String,
			Shares:  sr.shares.Float64,
			History: history,
		})
	}

	pf.SortHistoryByDate()

	r.log.Info().Int("stocks", pf.Len()).Msg("Portfolio loaded")
	return nil
}

// loadHistory reads all dailyData rows for one symbol. Persisted values
// are not re-validated; whatever the file holds is what comes back.
func (r *Repository) loadHistory(symbol string) ([]domain.DailyDatum, error) {
	rows, err := r.db.Query("SELECT date, price, volume FROM dailyData WHERE symbol = ?", symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily data for %s: %w", symbol, err)
	}
	defer rows.Close()

	var history []domain.DailyDatum
	for rows.Next() {
		var dateText string
		var price, volume float64
		if err := rows.Scan(&dateText, &price, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily data for %s: %w", symbol, err)
		}

		date, err := time.Parse(r.dateLayout, dateText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q for %s: %w", dateText, symbol, err)
		}

		history = append(history, domain.DailyDatum{
			Date:   domain.TruncateToDate(date),
			Close:  price,
			Volume: volume,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily data for %s: %w", symbol, err)
	}

	return history, nil
}
