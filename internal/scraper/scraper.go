package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"gold-price-alerts/internal/pricing"
)

// Source produces the current full historical price table as an ordered
// sequence of dated rows. The engine treats it as a black box.
type Source interface {
	FetchDailyPrices(ctx context.Context) ([]pricing.Row, error)
}

// tableColumns maps the feed's table columns, left to right after the date
// column, onto quote field names.
var tableColumns = pricing.DefaultQuoteFields

// Options parameterise the HTML table scraper.
type Options struct {
	URL        string
	UserAgent  string
	Timeout    time.Duration
	TableIndex int
}

// Scraper fetches and parses the daily gold price table.
type Scraper struct {
	opts   Options
	logger zerolog.Logger
	client *http.Client
}

// New constructs a Scraper.
func New(opts Options, logger zerolog.Logger) *Scraper {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Scraper{
		opts:   opts,
		logger: logger.With().Str("component", "scraper").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchDailyPrices downloads the source page and extracts the historical
// price table. Rows with an unparseable date are skipped; quote cells are
// passed through raw so the merger can validate them per row.
func (s *Scraper) FetchDailyPrices(ctx context.Context) ([]pricing.Row, error) {
	if s.opts.URL == "" {
		return nil, errors.New("source url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse source html: %w", err)
	}

	rows, err := s.parseTable(doc)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("rows", len(rows)).Msg("scraped price table")
	return rows, nil
}

func (s *Scraper) parseTable(doc *goquery.Document) ([]pricing.Row, error) {
	tables := doc.Find("table")
	if tables.Length() <= s.opts.TableIndex {
		return nil, fmt.Errorf("price table not found: page has %d tables", tables.Length())
	}

	table := tables.Eq(s.opts.TableIndex)
	rows := make([]pricing.Row, 0)

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return // header
		}

		cells := tr.Find("th, td")
		if cells.Length() < len(tableColumns) {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		date, err := time.Parse(pricing.DateFormat, dateText)
		if err != nil {
			s.logger.Warn().Str("value", dateText).Msg("skipping row with unparseable date")
			return
		}

		quotes := make(map[string]string, len(tableColumns))
		for col, field := range tableColumns {
			idx := col + 1
			if idx >= cells.Length() {
				break
			}
			value := cleanPrice(cells.Eq(idx).Text())
			if value == "" || value == "-" {
				continue // quote not published for this date
			}
			quotes[field] = value
		}

		rows = append(rows, pricing.Row{Date: date, Quotes: quotes})
	})

	return rows, nil
}

// cleanPrice strips the currency prefix and thousand separators from a
// quote cell, e.g. "Rs. 1,234.50" becomes "1234.50".
func cleanPrice(value string) string {
	cleaned := strings.ReplaceAll(value, "Rs.", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strings.TrimSpace(cleaned)
}

var _ Source = (*Scraper)(nil)
