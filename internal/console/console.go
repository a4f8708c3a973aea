// Package console implements the interactive text menu that drives the
// portfolio, storage, acquisition, reporting and charting services.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/acquisition"
	"stocktrack/internal/modules/charts"
	"stocktrack/internal/modules/importer"
	"stocktrack/internal/modules/portfolio"
	"stocktrack/internal/modules/reports"
	"stocktrack/internal/modules/snapshot"
	"stocktrack/internal/modules/storage"
)

const chartWidth = 50

// Deps bundles the services the console dispatches to.
type Deps struct {
	Portfolio *portfolio.Portfolio
	Store     *storage.Repository
	Importer  *importer.Importer
	Fetcher   acquisition.Fetcher
	Reports   *reports.Service
	Charts    *charts.Service
	Snapshot  *snapshot.Service
}

// Console reads commands from in and writes prompts and results to out.
type Console struct {
	deps       Deps
	in         *bufio.Reader
	out        io.Writer
	dateLayout string
	log        zerolog.Logger
}

// New creates a console bound to the given input and output streams.
func New(deps Deps, in io.Reader, out io.Writer, dateLayout string, log zerolog.Logger) *Console {
	return &Console{
		deps:       deps,
		in:         bufio.NewReader(in),
		out:        out,
		dateLayout: dateLayout,
		log:        log.With().Str("component", "console").Logger(),
	}
}

// Run drives the main menu loop until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		c.printf("\nStock Analyzer ---\n")
		c.printf("1 - Manage Stocks (Add, Update, Delete, List)\n")
		c.printf("2 - Add Daily Stock Data (Date, Price, Volume)\n")
		c.printf("3 - Show Report\n")
		c.printf("4 - Show Chart\n")
		c.printf("5 - Manage Data (Save, Load, Retrieve)\n")
		c.printf("0 - Exit Program\n")

		option, err := c.prompt("Enter Menu Option: ")
		if err != nil {
			return err
		}

		switch option {
		case "1":
			if err := c.manageStocks(); err != nil {
				return err
			}
		case "2":
			if err := c.addDailyData(); err != nil {
				return err
			}
		case "3":
			c.showReport()
		case "4":
			if err := c.showChart(); err != nil {
				return err
			}
		case "5":
			if err := c.manageData(ctx); err != nil {
				return err
			}
		case "0":
			c.printf("Goodbye! Thank you for using Stock Analyzer.\n")
			return nil
		default:
			c.printf("*** Invalid Option - Try again ***\n")
		}
	}
}

func (c *Console) manageStocks() error {
	for {
		c.printf("\nManage Stocks ---\n")
		c.printf("1 - Add Stock\n")
		c.printf("2 - Update Shares\n")
		c.printf("3 - Delete Stock\n")
		c.printf("4 - List Stocks\n")
		c.printf("0 - Exit Manage Stocks\n")

		option, err := c.prompt("Enter Menu Option: ")
		if err != nil {
			return err
		}

		switch option {
		case "1":
			if err := c.addStock(); err != nil {
				return err
			}
		case "2":
			if err := c.updateShares(); err != nil {
				return err
			}
		case "3":
			if err := c.deleteStock(); err != nil {
				return err
			}
		case "4":
			c.listStocks()
		case "0":
			return nil
		default:
			c.printf("*** Invalid Option - Try again ***\n")
		}
	}
}

func (c *Console) addStock() error {
	symbol, err := c.prompt("Enter stock symbol: ")
	if err != nil {
		return err
	}
	name, err := c.prompt("Enter company name: ")
	if err != nil {
		return err
	}
	shares, ok, err := c.promptFloat("Enter number of shares: ")
	if err != nil {
		return err
	}
	if !ok {
		c.printf("Invalid number of shares\n")
		return nil
	}

	stock, addErr := c.deps.Portfolio.Add(symbol, name, shares)
	switch {
	case addErr == nil:
		c.printf("Stock %s added successfully!\n", stock.Symbol)
	case errors.Is(addErr, domain.ErrDuplicateSymbol):
		c.printf("Stock %s already exists in your portfolio\n", domain.NormalizeSymbol(symbol))
	case errors.Is(addErr, domain.ErrEmptySymbol):
		c.printf("Invalid symbol\n")
	case errors.Is(addErr, domain.ErrEmptyName):
		c.printf("Invalid company name\n")
	default:
		c.printf("Error adding stock: %v\n", addErr)
	}
	return nil
}

func (c *Console) updateShares() error {
	for {
		c.printf("\nUpdate Shares ---\n")
		c.printf("1 - Buy Shares\n")
		c.printf("2 - Sell Shares\n")
		c.printf("0 - Exit Update Shares\n")

		option, err := c.prompt("Enter Menu Option: ")
		if err != nil {
			return err
		}

		switch option {
		case "1":
			if err := c.tradeShares(true); err != nil {
				return err
			}
		case "2":
			if err := c.tradeShares(false); err != nil {
				return err
			}
		case "0":
			return nil
		default:
			c.printf("*** Invalid Option - Try again ***\n")
		}
	}
}

func (c *Console) tradeShares(buy bool) error {
	if c.requireStocks() {
		return nil
	}
	c.showSymbols()

	symbol, err := c.prompt("Enter stock symbol: ")
	if err != nil {
		return err
	}

	verb := "sell"
	if buy {
		verb = "buy"
	}
	quantity, ok, err := c.promptFloat(fmt.Sprintf("Enter number of shares to %s: ", verb))
	if err != nil {
		return err
	}
	if !ok {
		c.printf("Invalid number of shares\n")
		return nil
	}

	var tradeErr error
	if buy {
		tradeErr = c.deps.Portfolio.Buy(symbol, quantity)
	} else {
		tradeErr = c.deps.Portfolio.Sell(symbol, quantity)
	}

	switch {
	case tradeErr == nil:
		stock, findErr := c.deps.Portfolio.Find(symbol)
		if findErr != nil {
			return findErr
		}
		if buy {
			c.printf("Successfully bought %g shares of %s\n", quantity, stock.Symbol)
			c.printf("Total shares now: %g\n", stock.Shares)
		} else {
			c.printf("Successfully sold %g shares of %s\n", quantity, stock.Symbol)
			c.printf("Remaining shares: %g\n", stock.Shares)
		}
	case errors.Is(tradeErr, domain.ErrStockNotFound):
		c.printf("Stock %s not found in portfolio\n", domain.NormalizeSymbol(symbol))
	case errors.Is(tradeErr, domain.ErrInsufficientShares):
		c.printf("Cannot sell %g shares: not enough shares held\n", quantity)
	case errors.Is(tradeErr, domain.ErrInvalidQuantity):
		c.printf("Number of shares must be positive\n")
	default:
		c.printf("Error updating shares: %v\n", tradeErr)
	}
	return nil
}

func (c *Console) deleteStock() error {
	if c.requireStocks() {
		return nil
	}
	c.showSymbols()

	symbol, err := c.prompt("Enter stock symbol to delete: ")
	if err != nil {
		return err
	}

	if removeErr := c.deps.Portfolio.Remove(symbol); removeErr != nil {
		if errors.Is(removeErr, domain.ErrStockNotFound) {
			c.printf("Stock %s not found in portfolio\n", domain.NormalizeSymbol(symbol))
		} else {
			c.printf("Error deleting stock: %v\n", removeErr)
		}
		return nil
	}
	c.printf("Stock %s deleted successfully\n", domain.NormalizeSymbol(symbol))
	return nil
}

func (c *Console) listStocks() {
	c.printf("\n--- Stock Portfolio ---\n")
	c.printf("%-8s %-25s %-15s %-12s\n", "Symbol", "Name", "Shares", "Data Records")
	c.printf("%s\n", strings.Repeat("=", 60))
	for _, stock := range c.deps.Portfolio.Stocks() {
		c.printf("%-8s %-25s %-15g %-12d\n", stock.Symbol, stock.Name, stock.Shares, len(stock.History))
	}
	c.printf("\nTotal stocks: %d\n", c.deps.Portfolio.Len())
}

func (c *Console) addDailyData() error {
	if c.requireStocks() {
		return nil
	}
	c.showSymbols()

	symbol, err := c.prompt("Enter stock symbol: ")
	if err != nil {
		return err
	}
	if _, findErr := c.deps.Portfolio.Find(symbol); findErr != nil {
		c.printf("Stock %s not found in portfolio\n", domain.NormalizeSymbol(symbol))
		return nil
	}

	dateStr, err := c.prompt(fmt.Sprintf("Enter date (%s): ", strings.ToUpper(c.dateLayout)))
	if err != nil {
		return err
	}
	date, parseErr := time.Parse(c.dateLayout, dateStr)
	if parseErr != nil {
		c.printf("Invalid date format\n")
		return nil
	}

	price, ok, err := c.promptFloat("Enter closing price: $")
	if err != nil {
		return err
	}
	if !ok {
		c.printf("Invalid price\n")
		return nil
	}
	volume, ok, err := c.promptFloat("Enter volume: ")
	if err != nil {
		return err
	}
	if !ok {
		c.printf("Invalid volume\n")
		return nil
	}

	datum, datumErr := domain.NewDailyDatum(date, price, volume)
	switch {
	case datumErr == nil:
		if appendErr := c.deps.Portfolio.AppendDailyDatum(symbol, datum); appendErr != nil {
			c.printf("Error adding daily data: %v\n", appendErr)
			return nil
		}
		c.printf("Daily data added successfully for %s\n", domain.NormalizeSymbol(symbol))
		c.printf("Date: %s, Price: $%.2f, Volume: %.0f\n", datum.Date.Format(c.dateLayout), datum.Close, datum.Volume)
	case errors.Is(datumErr, domain.ErrInvalidPrice):
		c.printf("Price must be positive\n")
	case errors.Is(datumErr, domain.ErrInvalidVolume):
		c.printf("Volume cannot be negative\n")
	default:
		c.printf("Error adding daily data: %v\n", datumErr)
	}
	return nil
}

func (c *Console) showReport() {
	c.printf("\nStock Report ---\n")
	c.printf("%s\n", strings.Repeat("=", 60))
	if c.requireStocks() {
		return
	}

	for _, report := range c.deps.Reports.ForPortfolio(c.deps.Portfolio) {
		c.printf("\nStock: %s - %s\n", report.Symbol, report.Name)
		c.printf("Shares: %g\n", report.Shares)
		c.printf("%s\n", strings.Repeat("=", 60))

		if report.Records == 0 {
			c.printf("No price data available\n")
			c.printf("Use Manage Data -> Retrieve Data from Web to get historical data\n")
			c.printf("%s\n", strings.Repeat("=", 60))
			continue
		}

		c.printf("%-12s %-12s %-15s\n", "Date", "Price", "Volume")
		c.printf("%s\n", strings.Repeat("=", 60))
		for _, d := range report.History {
			c.printf("%-12s $%-11.2f %14.0f\n", d.Date.Format(c.dateLayout), d.Close, d.Volume)
		}
		c.printf("%s\n", strings.Repeat("=", 60))
		c.printf("Current Price: $%.2f\n", report.Current)
		c.printf("Price Range: $%.2f - $%.2f\n", report.Low, report.High)
		c.printf("Price Change: $%+.2f (%+.1f%%)\n", report.Change, report.PercentChange)
		c.printf("Portfolio Value: $%.2f\n", report.PortfolioValue)
		c.printf("Mean Price: $%.2f  Std Dev: $%.2f\n", report.Mean, report.StdDev)
		if report.HasTrend {
			c.printf("5-Day SMA: $%.2f\n", report.TrendSMA)
		}
		c.printf("Records: %d\n", report.Records)
		c.printf("%s\n", strings.Repeat("=", 60))
	}
}

func (c *Console) showChart() error {
	if c.requireStocks() {
		return nil
	}
	c.showSymbols()

	symbol, err := c.prompt("Enter stock symbol to chart: ")
	if err != nil {
		return err
	}

	points, chartErr := c.deps.Charts.PriceSeries(c.deps.Portfolio, symbol)
	if chartErr != nil {
		if errors.Is(chartErr, domain.ErrStockNotFound) {
			c.printf("Stock %s not found in portfolio\n", domain.NormalizeSymbol(symbol))
		} else {
			c.printf("Error displaying chart: %v\n", chartErr)
		}
		return nil
	}
	if len(points) == 0 {
		c.printf("No price data available for %s\n", domain.NormalizeSymbol(symbol))
		c.printf("Use Retrieve Data from Web to get historical data\n")
		return nil
	}

	c.renderChart(domain.NormalizeSymbol(symbol), points)
	return nil
}

// renderChart draws a horizontal bar per data point, scaled so the
// highest close fills chartWidth columns.
func (c *Console) renderChart(symbol string, points []charts.ChartDataPoint) {
	max := points[0].Value
	for _, p := range points {
		if p.Value > max {
			max = p.Value
		}
	}

	c.printf("\n%s Closing Prices\n", symbol)
	c.printf("%s\n", strings.Repeat("-", chartWidth+25))
	for _, p := range points {
		bar := 0
		if max > 0 {
			bar = int(p.Value / max * chartWidth)
		}
		c.printf("%-12s %s %.2f\n", p.Time, strings.Repeat("#", bar), p.Value)
	}
	c.printf("%s\n", strings.Repeat("-", chartWidth+25))
}

func (c *Console) manageData(ctx context.Context) error {
	for {
		c.printf("\nManage Data ---\n")
		c.printf("1 - Save Data to Database\n")
		c.printf("2 - Load Data from Database\n")
		c.printf("3 - Retrieve Data from Yahoo! Finance\n")
		c.printf("4 - Import CSV Data from Yahoo! Finance\n")
		c.printf("5 - Export Snapshot to File\n")
		c.printf("6 - Restore Snapshot from File\n")
		c.printf("0 - Exit Manage Data\n")

		option, err := c.prompt("Enter Menu Option: ")
		if err != nil {
			return err
		}

		switch option {
		case "1":
			if saveErr := c.deps.Store.Save(c.deps.Portfolio); saveErr != nil {
				c.printf("Error saving data: %v\n", saveErr)
			} else {
				c.printf("Data saved successfully!\n")
			}
		case "2":
			if loadErr := c.deps.Store.Load(c.deps.Portfolio); loadErr != nil {
				c.printf("Error loading data: %v\n", loadErr)
			} else {
				c.printf("Data loaded successfully! %d stocks loaded.\n", c.deps.Portfolio.Len())
			}
		case "3":
			if err := c.retrieveFromWeb(ctx); err != nil {
				return err
			}
		case "4":
			if err := c.importCSV(); err != nil {
				return err
			}
		case "5":
			if err := c.exportSnapshot(); err != nil {
				return err
			}
		case "6":
			if err := c.restoreSnapshot(); err != nil {
				return err
			}
		case "0":
			return nil
		default:
			c.printf("*** Invalid Option - Try again ***\n")
		}
	}
}

func (c *Console) retrieveFromWeb(ctx context.Context) error {
	if c.deps.Portfolio.Len() == 0 {
		c.printf("No stocks in your portfolio. Please add stocks first.\n")
		return nil
	}

	layout := strings.ToUpper(c.dateLayout)
	startStr, err := c.prompt(fmt.Sprintf("Enter Starting Date (%s): ", layout))
	if err != nil {
		return err
	}
	endStr, err := c.prompt(fmt.Sprintf("Enter Ending Date (%s): ", layout))
	if err != nil {
		return err
	}

	start, parseErr := time.Parse(c.dateLayout, startStr)
	if parseErr != nil {
		c.printf("Invalid starting date\n")
		return nil
	}
	end, parseErr := time.Parse(c.dateLayout, endStr)
	if parseErr != nil {
		c.printf("Invalid ending date\n")
		return nil
	}

	count, fetchErr := c.deps.Fetcher.FetchRange(ctx, start, end, c.deps.Portfolio)
	if fetchErr != nil {
		c.printf("Error retrieving data: %v\n", fetchErr)
		c.printf("Please check your Chrome installation and internet connection.\n")
		return nil
	}
	c.printf("Records Retrieved: %d\n", count)
	return nil
}

func (c *Console) importCSV() error {
	if c.deps.Portfolio.Len() == 0 {
		c.printf("No stocks in your portfolio. Please add stocks first.\n")
		return nil
	}
	c.showSymbols()

	symbol, err := c.prompt("Which stock do you want to use?: ")
	if err != nil {
		return err
	}
	filename, err := c.prompt("Enter CSV file path: ")
	if err != nil {
		return err
	}

	count, importErr := c.deps.Importer.ImportCSV(c.deps.Portfolio, symbol, filename)
	switch {
	case importErr == nil:
		c.printf("Imported %d records for %s\n", count, domain.NormalizeSymbol(symbol))
	case errors.Is(importErr, domain.ErrStockNotFound):
		c.printf("Stock %s not found in portfolio\n", domain.NormalizeSymbol(symbol))
	case errors.Is(importErr, fs.ErrNotExist):
		c.printf("File not found: %s\n", filename)
	default:
		c.printf("Error importing CSV: %v\n", importErr)
	}
	return nil
}

func (c *Console) exportSnapshot() error {
	path, err := c.prompt("Enter snapshot file path: ")
	if err != nil {
		return err
	}
	if exportErr := c.deps.Snapshot.Export(path, c.deps.Portfolio); exportErr != nil {
		c.printf("Error exporting snapshot: %v\n", exportErr)
		return nil
	}
	c.printf("Snapshot exported to %s\n", path)
	return nil
}

func (c *Console) restoreSnapshot() error {
	path, err := c.prompt("Enter snapshot file path: ")
	if err != nil {
		return err
	}
	if restoreErr := c.deps.Snapshot.Restore(path, c.deps.Portfolio); restoreErr != nil {
		c.printf("Error restoring snapshot: %v\n", restoreErr)
		return nil
	}
	c.printf("Snapshot restored. %d stocks loaded.\n", c.deps.Portfolio.Len())
	return nil
}

// requireStocks prints a notice and reports true when the portfolio is
// empty.
func (c *Console) requireStocks() bool {
	if c.deps.Portfolio.Len() == 0 {
		c.printf("No stocks in portfolio\n")
		return true
	}
	return false
}

func (c *Console) showSymbols() {
	c.printf("Stock List: [%s]\n", strings.Join(c.deps.Portfolio.Symbols(), ", "))
}

func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptFloat reads a number; ok is false when the input does not
// parse.
func (c *Console) promptFloat(label string) (value float64, ok bool, err error) {
	raw, err := c.prompt(label)
	if err != nil {
		return 0, false, err
	}
	value, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		return 0, false, nil
	}
	return value, true, nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
