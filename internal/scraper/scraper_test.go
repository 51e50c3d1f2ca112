package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const priceTableHTML = `<html><body>
<table><tr><td>navigation</td></tr></table>
<table>
  <tr><th>Date</th><th>Ounce</th><th>24k 1g</th><th>22k 1g</th><th>22k 8g</th><th>21k 1g</th></tr>
  <tr><td>2024-06-15</td><td>Rs. 2,340.00</td><td>Rs. 95.50</td><td>Rs. 87.25</td><td>Rs. 698.00</td><td>Rs. 83.40</td></tr>
  <tr><td>2024-06-14</td><td>Rs. 2,310.00</td><td>-</td><td>Rs. 86.90</td><td></td><td>Rs. 83.00</td></tr>
  <tr><td>not-a-date</td><td>Rs. 1.00</td><td>Rs. 1.00</td><td>Rs. 1.00</td><td>Rs. 1.00</td><td>Rs. 1.00</td></tr>
</table>
</body></html>`

func newTestScraper(url string) *Scraper {
	return New(Options{
		URL:        url,
		UserAgent:  "test",
		Timeout:    time.Second,
		TableIndex: 1,
	}, zerolog.Nop())
}

func TestFetchDailyPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test" {
			t.Errorf("user agent not forwarded: %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, priceTableHTML)
	}))
	defer srv.Close()

	rows, err := newTestScraper(srv.URL).FetchDailyPrices(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 parseable rows, got %d", len(rows))
	}

	first := rows[0]
	if !first.Date.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %s", first.Date)
	}
	if first.Quotes["gold_ounce"] != "2340.00" {
		t.Fatalf("currency prefix and separators should be stripped, got %q", first.Quotes["gold_ounce"])
	}
	if len(first.Quotes) != 5 {
		t.Fatalf("expected all 5 quote fields, got %d", len(first.Quotes))
	}

	second := rows[1]
	if _, present := second.Quotes["carat_24_1gram"]; present {
		t.Fatal("a dash cell must leave the quote absent")
	}
	if _, present := second.Quotes["carat_22_8grams"]; present {
		t.Fatal("an empty cell must leave the quote absent")
	}
	if len(second.Quotes) != 3 {
		t.Fatalf("expected 3 present quotes, got %d", len(second.Quotes))
	}
}

func TestFetchDailyPricesMissingTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><table><tr><td>only one</td></tr></table></body></html>")
	}))
	defer srv.Close()

	if _, err := newTestScraper(srv.URL).FetchDailyPrices(context.Background()); err == nil {
		t.Fatal("a page without the price table should error")
	}
}

func TestFetchDailyPricesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestScraper(srv.URL).FetchDailyPrices(context.Background()); err == nil {
		t.Fatal("non-200 responses should error")
	}
}

func TestFetchDailyPricesRequiresURL(t *testing.T) {
	if _, err := newTestScraper("").FetchDailyPrices(context.Background()); err == nil {
		t.Fatal("missing source url should error")
	}
}
