package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

const shortLayout = "01/02/06"

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

// setupTestDB creates an in-memory SQLite database with both tables
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())
	require.NoError(t, repo.Init())

	return db
}

func newPortfolio(t *testing.T) *portfolio.Portfolio {
	t.Helper()
	return portfolio.New(testLogger())
}

func addDatum(t *testing.T, pf *portfolio.Portfolio, symbol, isoDate string, close, volume float64) {
	t.Helper()
	date, err := time.Parse("2006-01-02", isoDate)
	require.NoError(t, err)
	d, err := domain.NewDailyDatum(date, close, volume)
	require.NoError(t, err)
	require.NoError(t, pf.AppendDailyDatum(symbol, d))
}

func TestInit_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	// A second Init on an already-initialized file must be safe.
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())
	require.NoError(t, repo.Init())
	require.NoError(t, repo.Init())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())

	pf := newPortfolio(t)
	_, err := pf.Add("MSFT", "Microsoft Corp", 4)
	require.NoError(t, err)
	_, err = pf.Add("AAPL", "Apple Inc.", 12.5)
	require.NoError(t, err)

	// History deliberately out of order; load must normalize.
	addDatum(t, pf, "AAPL", "2020-01-03", 103, 300)
	addDatum(t, pf, "AAPL", "2020-01-01", 101, 100)
	addDatum(t, pf, "MSFT", "2020-02-01", 200, 1000)

	require.NoError(t, repo.Save(pf))

	loaded := newPortfolio(t)
	require.NoError(t, repo.Load(loaded))

	// Symbols come back ascending.
	assert.Equal(t, []string{"AAPL", "MSFT"}, loaded.Symbols())

	aapl, err := loaded.Find("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", aapl.Name)
	assert.Equal(t, 12.5, aapl.Shares)
	require.Len(t, aapl.History, 2)
	// Histories come back ascending by date.
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), aapl.History[0].Date)
	assert.Equal(t, 101.0, aapl.History[0].Close)
	assert.Equal(t, 100.0, aapl.History[0].Volume)
	assert.Equal(t, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), aapl.History[1].Date)

	msft, err := loaded.Find("MSFT")
	require.NoError(t, err)
	assert.Equal(t, 4.0, msft.Shares)
	require.Len(t, msft.History, 1)
}

func TestLoad_ClearsExistingPortfolio(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())

	saved := newPortfolio(t)
	_, err := saved.Add("AAPL", "Apple Inc.", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(saved))

	target := newPortfolio(t)
	_, err = target.Add("STALE", "Leftover Corp", 9)
	require.NoError(t, err)

	require.NoError(t, repo.Load(target))

	assert.Equal(t, []string{"AAPL"}, target.Symbols())
}

func TestSave_IgnorePolicyKeepsFirstSavedValues(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())

	pf := newPortfolio(t)
	_, err := pf.Add("AAPL", "Apple Inc.", 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(pf))

	// Mutate and re-save; ignore-on-conflict must not refresh the row.
	require.NoError(t, pf.Buy("AAPL", 90))
	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	stock.Name = "Renamed Inc."
	require.NoError(t, repo.Save(pf))

	var name string
	var shares float64
	err = db.QueryRow("SELECT name, shares FROM stocks WHERE symbol = ?", "AAPL").Scan(&name, &shares)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)
	assert.Equal(t, 10.0, shares)
}

func TestSave_UpdatePolicyRefreshesRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyUpdate, testLogger())
	require.NoError(t, repo.Init())

	pf := newPortfolio(t)
	_, err := pf.Add("AAPL", "Apple Inc.", 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(pf))

	require.NoError(t, pf.Buy("AAPL", 5))
	require.NoError(t, repo.Save(pf))

	var shares float64
	err = db.QueryRow("SELECT shares FROM stocks WHERE symbol = ?", "AAPL").Scan(&shares)
	require.NoError(t, err)
	assert.Equal(t, 15.0, shares)
}

func TestSave_FailPolicySurfacesConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyFail, testLogger())
	require.NoError(t, repo.Init())

	pf := newPortfolio(t)
	_, err := pf.Add("AAPL", "Apple Inc.", 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(pf))

	err = repo.Save(pf)
	assert.Error(t, err)
}

func TestSave_TwoDigitYearCenturyCollision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())

	pf := newPortfolio(t)
	_, err := pf.Add("AAPL", "Apple Inc.", 1)
	require.NoError(t, err)
	// 1999-05-01 and 2099-05-01 both store as "05/01/99".
	addDatum(t, pf, "AAPL", "1999-05-01", 100, 10)
	addDatum(t, pf, "AAPL", "2099-05-01", 500, 50)

	require.NoError(t, repo.Save(pf))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM dailyData WHERE symbol = ?", "AAPL").Scan(&count))
	assert.Equal(t, 1, count, "colliding dates collapse to one stored row")

	loaded := newPortfolio(t)
	require.NoError(t, repo.Load(loaded))
	stock, err := loaded.Find("AAPL")
	require.NoError(t, err)
	require.Len(t, stock.History, 1)
	// Two-digit year 99 reads back as 1999; the 2099 row is lost.
	assert.Equal(t, time.Date(1999, 5, 1, 0, 0, 0, 0, time.UTC), stock.History[0].Date)
	assert.Equal(t, 100.0, stock.History[0].Close)
}

func TestSaveLoad_ISOLayoutAvoidsCollision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, "2006-01-02", PolicyIgnore, testLogger())

	pf := newPortfolio(t)
	_, err := pf.Add("AAPL", "Apple Inc.", 1)
	require.NoError(t, err)
	addDatum(t, pf, "AAPL", "1999-05-01", 100, 10)
	addDatum(t, pf, "AAPL", "2099-05-01", 500, 50)

	require.NoError(t, repo.Save(pf))

	loaded := newPortfolio(t)
	require.NoError(t, repo.Load(loaded))
	stock, err := loaded.Find("AAPL")
	require.NoError(t, err)
	assert.Len(t, stock.History, 2)
}

func TestLoad_DoesNotRevalidatePersistedRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, shortLayout, PolicyIgnore, testLogger())

	// A row with an empty name and zero price would fail input
	// validation, but persisted values are taken as-is.
	_, err := db.Exec("INSERT INTO stocks (symbol, name, shares) VALUES ('ODD', '', -2)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO dailyData (symbol, date, price, volume) VALUES ('ODD', '01/02/20', 0, 0)")
	require.NoError(t, err)

	pf := newPortfolio(t)
	require.NoError(t, repo.Load(pf))

	stock, err := pf.Find("ODD")
	require.NoError(t, err)
	assert.Equal(t, "", stock.Name)
	assert.Equal(t, -2.0, stock.Shares)
	require.Len(t, stock.History, 1)
	assert.Equal(t, 0.0, stock.History[0].Close)
}
