package kis_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/kis"
)

const samsungBody = `{
	"rt_cd": "0",
	"msg_cd": "MCA00000",
	"msg1": "정상처리 되었습니다.",
	"output": {
		"stck_prpr": "73,500",
		"prdy_clpr": "72,000",
		"prdy_vrss": "1,500",
		"prdy_ctrt": "2.08",
		"hts_kor_isnm": "삼성전자"
	}
}`

// fakeOpenAPI serves both the token and the price endpoint.
func fakeOpenAPI(t *testing.T, priceBody string, priceStatus int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var priceCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"access_token":"tok"}`))
	})
	mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-price", func(w http.ResponseWriter, r *http.Request) {
		priceCalls.Add(1)
		if r.Header.Get("authorization") != "Bearer tok" || r.Header.Get("tr_id") != "FHKST01010100" || r.Header.Get("custtype") != "P" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("fid_cond_mrkt_div_code") != "J" || r.URL.Query().Get("fid_input_iscd") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(priceStatus)
		w.Write([]byte(priceBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &priceCalls
}

func newClient(srv *httptest.Server, key, secret string) *kis.Client {
	return kis.NewClient(kis.Config{
		AppKey:     key,
		AppSecret:  secret,
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		HTTPClient: srv.Client(),
	}, kis.NewMemoryTokenCache(), zerolog.Nop())
}

func TestClient_FetchQuote(t *testing.T) {
	t.Run("parses the samsung scenario", func(t *testing.T) {
		srv, _ := fakeOpenAPI(t, samsungBody, http.StatusOK)
		client := newClient(srv, "key", "secret")

		q, err := client.FetchQuote(context.Background(), "005930")

		if err != nil {
			t.Fatalf("FetchQuote() returned unexpected error: %v", err)
		}
		if q.CurrentPrice != 73500 || q.Change != 1500 || q.PreviousClose != 72000 {
			t.Errorf("Unexpected prices: %+v", q)
		}
		if q.ChangePercent.String() != "2.08" {
			t.Errorf("Expected change percent 2.08, got %s", q.ChangePercent)
		}
		if q.Name != "삼성전자" {
			t.Errorf("Expected name 삼성전자, got %q", q.Name)
		}
	})

	t.Run("missing credentials fail without a request", func(t *testing.T) {
		srv, priceCalls := fakeOpenAPI(t, samsungBody, http.StatusOK)
		client := newClient(srv, "", "secret")

		_, err := client.FetchQuote(context.Background(), "005930")

		if !errors.Is(err, apperrors.ErrMissingCredentials) {
			t.Errorf("Expected ErrMissingCredentials, got %v", err)
		}
		if priceCalls.Load() != 0 {
			t.Errorf("Expected no price request, got %d", priceCalls.Load())
		}
	})

	t.Run("non-200 is a fetch error", func(t *testing.T) {
		srv, _ := fakeOpenAPI(t, `oops`, http.StatusInternalServerError)
		client := newClient(srv, "key", "secret")

		_, err := client.FetchQuote(context.Background(), "005930")

		var fetchErr *apperrors.QuoteFetchError
		if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusInternalServerError {
			t.Errorf("Expected QuoteFetchError with status 500, got %v", err)
		}
	})
}

// TestParseQuote covers the field fallbacks of the price response.
//
// WHY: The provider omits or zeroes fields outside market hours. The parser
// must derive what it can and refuse a 0 price rather than report it.
func TestParseQuote(t *testing.T) {
	now := time.Date(2024, 6, 11, 1, 0, 0, 0, time.UTC)

	t.Run("provider error carries code and message", func(t *testing.T) {
		_, err := kis.ParseQuote("005930", []byte(`{"rt_cd":"1","msg_cd":"EGW00121","msg1":"유효하지 않은 token 입니다."}`), now)

		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected *ParseError, got %v", err)
		}
		if parseErr.Code != "EGW00121" || parseErr.Message == "" {
			t.Errorf("Expected provider code and message, got %+v", parseErr)
		}
	})

	t.Run("missing output is a parse error", func(t *testing.T) {
		_, err := kis.ParseQuote("005930", []byte(`{"rt_cd":"0"}`), now)
		if !errors.Is(err, apperrors.ErrParse) {
			t.Errorf("Expected ErrParse, got %v", err)
		}
	})

	t.Run("zero price is a parse error", func(t *testing.T) {
		_, err := kis.ParseQuote("005930", []byte(`{"rt_cd":"0","output":{"stck_prpr":"0","prdy_clpr":"72,000"}}`), now)
		if !errors.Is(err, apperrors.ErrParse) {
			t.Errorf("Expected ErrParse, got %v", err)
		}
	})

	t.Run("derives change and rate when zero", func(t *testing.T) {
		body := `{"rt_cd":"0","output":{"stck_prpr":"73,500","prdy_clpr":"72,000","prdy_vrss":"0","prdy_ctrt":"0.00"}}`

		q, err := kis.ParseQuote("005930", []byte(body), now)

		if err != nil {
			t.Fatalf("ParseQuote() returned unexpected error: %v", err)
		}
		if q.Change != 1500 {
			t.Errorf("Expected derived change 1500, got %d", q.Change)
		}
		if q.ChangePercent.String() != "2.08" {
			t.Errorf("Expected derived rate 2.08, got %s", q.ChangePercent)
		}
		if q.Name != "005930" {
			t.Errorf("Expected symbol as placeholder name, got %q", q.Name)
		}
	})

	t.Run("negative change keeps its sign", func(t *testing.T) {
		body := `{"rt_cd":"0","output":{"stck_prpr":"70,500","prdy_clpr":"72,000","prdy_vrss":"-1,500","prdy_ctrt":"-2.08","hts_kor_isnm":"삼성전자"}}`

		q, err := kis.ParseQuote("005930", []byte(body), now)

		if err != nil {
			t.Fatalf("ParseQuote() returned unexpected error: %v", err)
		}
		if q.Change != -1500 || q.ChangePercent.String() != "-2.08" {
			t.Errorf("Expected -1500 / -2.08, got %d / %s", q.Change, q.ChangePercent)
		}
	})
}
