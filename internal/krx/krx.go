// Package krx fetches the exchange's listed-issue catalog from the public
// data portal (data.go.kr GetKrxListedInfoService).
package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// DefaultBaseURL is the public data portal API host.
const DefaultBaseURL = "https://apis.data.go.kr"

const (
	itemInfoPath = "/1160100/service/GetKrxListedInfoService/getItemInfo"
	pageSize     = 10000
	successCode  = "00"
)

// Client fetches the listed-issue catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
}

// NewClient creates a Client. apiKey may be given URL-encoded, as the portal
// hands it out, or raw.
func NewClient(httpClient *http.Client, baseURL, apiKey string, timeout time.Duration) *Client {
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
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// FetchListedIssues downloads the full catalog.
func (c *Client) FetchListedIssues(ctx context.Context) ([]model.ListedIssue, error) {
	if !c.Configured() {
		return nil, apperrors.ErrCatalogUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	serviceKey := c.apiKey
	if !strings.Contains(serviceKey, "%") {
		serviceKey = url.QueryEscape(serviceKey)
	}
	// serviceKey is appended pre-encoded; url.Values would encode it twice.
	query := url.Values{}
	query.Set("numOfRows", fmt.Sprint(pageSize))
	query.Set("pageNo", "1")
	query.Set("resultType", "json")
	reqURL := c.baseURL + itemInfoPath + "?serviceKey=" + serviceKey + "&" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog error: status %d", resp.StatusCode)
	}

	return ParseListedIssues(body)
}

// ParseListedIssues extracts (name, code) pairs from a getItemInfo response.
// Entries missing either field are skipped; a leading "A" on the short code
// is dropped.
func ParseListedIssues(body []byte) ([]model.ListedIssue, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("catalog response is not JSON: %w", err)
	}

	code, err := jsonpath.Get("$.response.header.resultCode", doc)
	if err != nil {
		return nil, fmt.Errorf("unexpected catalog response: %w", err)
	}
	if code != successCode {
		msg, _ := jsonpath.Get("$.response.header.resultMsg", doc)
		return nil, fmt.Errorf("catalog error: %v %v", code, msg)
	}

	raw, err := jsonpath.Get("$.response.body.items.item", doc)
	if err != nil {
		// An empty result set has no item key at all.
		return []model.ListedIssue{}, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		// A single result is sent as an object rather than a list.
		items = []any{v}
	}

	issues := make([]model.ListedIssue, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["itmsNm"].(string)
		short, _ := m["srtnCd"].(string)
		name, short = strings.TrimSpace(name), normalizeCode(short)
		if name == "" || short == "" || seen[short] {
			continue
		}
		seen[short] = true
		issues = append(issues, model.ListedIssue{Code: short, Name: name})
	}
	return issues, nil
}

func normalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 7 && code[0] == 'A' {
		return code[1:]
	}
	return code
}
