package importer

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func portfolioWith(t *testing.T, symbol string) *portfolio.Portfolio {
	t.Helper()
	pf := portfolio.New(testLogger())
	_, err := pf.Add(symbol, symbol+" Corp", 1)
	require.NoError(t, err)
	return pf
}

func TestImportCSV_SixColumnRow(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Volume\n"+
		`"01/02/2020","100","110","95","105.50","1,234,567"`+"\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	require.Len(t, stock.History, 1)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), stock.History[0].Date)
	assert.Equal(t, 105.50, stock.History[0].Close)
	assert.Equal(t, 1234567.0, stock.History[0].Volume)
}

func TestImportCSV_SevenColumnRowUsesLastColumnForVolume(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Adj Close,Volume\n"+
		"2020-01-02,100,110,95,105.50,104.90,2500\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	require.Len(t, stock.History, 1)
	// Close stays at index 4; the adjusted close at index 5 is skipped.
	assert.Equal(t, 105.50, stock.History[0].Close)
	assert.Equal(t, 2500.0, stock.History[0].Volume)
}

func TestImportCSV_WideRowVolumeFromLastColumn(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Adj Close,Extra,Volume\n"+
		"2020-01-02,100,110,95,105.50,104.90,x,3000\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, stock.History[0].Volume)
}

func TestImportCSV_MalformedRowSkippedValidRowsKept(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Volume\n"+
		"01/02/2020,100,110,95,105.50,1000\n"+
		`"badrow","x"]`+"\n"+
		"01/03/2020,106,112,101,108.25,1100\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	require.Len(t, stock.History, 2)
	assert.Equal(t, 105.50, stock.History[0].Close)
	assert.Equal(t, 108.25, stock.History[1].Close)
}

func TestImportCSV_UnparseableValuesSkipRow(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Volume\n"+
		"01/02/2020,100,110,95,not-a-price,1000\n"+
		"01/03/2020,100,110,95,105.50,not-a-volume\n"+
		"bad-date,100,110,95,105.50,1000\n"+
		"01/04/2020,100,110,95,110.00,1200\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	require.Len(t, stock.History, 1)
	assert.Equal(t, 110.0, stock.History[0].Close)
}

func TestImportCSV_TwoDigitYearFallback(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Volume\n"+
		"1/2/20,100,110,95,105.50,1000\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), stock.History[0].Date)
}

func TestImportCSV_NarrowRowsIgnored(t *testing.T) {
	path := writeCSV(t, "Date,Close\n"+
		"01/02/2020,105.50\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", path)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImportCSV_UnknownSymbolAbortsWithoutAppending(t *testing.T) {
	path := writeCSV(t, "Date,Open,High,Low,Close,Volume\n"+
		"01/02/2020,100,110,95,105.50,1000\n")
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "MISSING", path)
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
	assert.Equal(t, 0, count)

	stock, err := pf.Find("AAPL")
	require.NoError(t, err)
	assert.Empty(t, stock.History)
}

func TestImportCSV_MissingFile(t *testing.T) {
	pf := portfolioWith(t, "AAPL")

	count, err := New(testLogger()).ImportCSV(pf, "AAPL", filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 0, count)
}

func TestMappingForWidth(t *testing.T) {
	testCases := []struct {
		width       int
		ok          bool
		closeIndex  int
		volumeIndex int
	}{
		{4, false, 0, 0},
		{5, true, 4, 4},
		{6, true, 4, 5},
		{7, true, 4, 6},
		{9, true, 4, 8},
	}

	for _, tc := range testCases {
		mapping, ok := mappingForWidth(tc.width)
		assert.Equal(t, tc.ok, ok, "width %d", tc.width)
		if ok {
			assert.Equal(t, tc.closeIndex, mapping.closeIndex, "width %d", tc.width)
			assert.Equal(t, tc.volumeIndex, mapping.volumeIndex, "width %d", tc.width)
		}
	}
}
