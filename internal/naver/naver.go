// Package naver scrapes quotes from the Naver Finance item page. It is the
// unauthenticated fallback source.
package naver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

const (
	// SourceName identifies this adapter in logs and resolutions.
	SourceName = "naver"

	// DefaultBaseURL is the public finance site.
	DefaultBaseURL = "https://finance.naver.com"

	// The site rejects requests without a browser user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	accept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Client fetches and parses item pages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	now        func() time.Time
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		now:        time.Now,
	}
}

// Name implements quote.Source.
func (c *Client) Name() string { return SourceName }

// FetchQuote downloads the item page for symbol and parses it.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pageURL := c.baseURL + "/item/main.naver?code=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.Quote{}, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Referer", DefaultBaseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Status: resp.StatusCode}
	}

	return ParseQuote(symbol, resp.Body, resp.Header.Get("Content-Type"), c.now())
}

// ParseQuote reads a quote from an item page. The body is decoded from the
// charset named by contentType or the page's meta tag (the site serves EUC-KR).
//
// Only the current price is mandatory. Previous close falls back to the
// current price, change and change rate are derived from the prices, and the
// name falls back to the symbol.
func ParseQuote(symbol string, body io.Reader, contentType string, now time.Time) (model.Quote, error) {
	utf8Body, err := charset.NewReader(body, contentType)
	if err != nil {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Message: "unsupported charset: " + err.Error()}
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Message: "invalid HTML: " + err.Error()}
	}

	current, ok := parsePrice(doc.Find("p.no_today span.blind").First().Text())
	if !ok || current <= 0 {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Field: "no_today", Message: "current price not found"}
	}

	previous, ok := parsePrice(previousCloseCell(doc).Find("span.blind").First().Text())
	if !ok || previous <= 0 {
		previous = current
	}

	exday := doc.Find("p.no_exday em")
	change, ok := signedPrice(exday.Eq(0))
	if !ok {
		change = current - previous
	}
	rate, ok := signedRate(exday.Eq(1))
	if !ok {
		rate = model.PercentOf(change, previous)
	}

	name := strings.TrimSpace(doc.Find("div.wrap_company h2 a, h2.wrap_company a").First().Text())
	if name == "" {
		name = symbol
	}

	return model.Quote{
		Symbol:        symbol,
		Name:          name,
		CurrentPrice:  current,
		PreviousClose: previous,
		Change:        change,
		ChangePercent: rate,
		RetrievedAt:   now,
	}, nil
}

// previousCloseCell finds the summary table cell labelled 전일 (previous close).
func previousCloseCell(doc *goquery.Document) *goquery.Selection {
	return doc.Find("table.no_info td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "전일")
	}).First()
}

func signedPrice(em *goquery.Selection) (int64, bool) {
	if em.Length() == 0 {
		return 0, false
	}
	v, ok := parsePrice(em.Find("span.blind").First().Text())
	if !ok {
		return 0, false
	}
	if em.HasClass("no_down") && v > 0 {
		v = -v
	}
	return v, true
}

func signedRate(em *goquery.Selection) (model.Rate, bool) {
	if em.Length() == 0 {
		return model.Rate{}, false
	}
	text := strings.TrimSpace(em.Find("span.blind").First().Text())
	text = strings.TrimSuffix(strings.TrimPrefix(text, "+"), "%")
	if text == "" {
		return model.Rate{}, false
	}
	r, err := model.ParseRate(text)
	if err != nil {
		return model.Rate{}, false
	}
	if em.HasClass("no_down") && r.Cmp(model.Rate{}) > 0 {
		r = r.Neg()
	}
	return r, true
}

func parsePrice(text string) (int64, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
