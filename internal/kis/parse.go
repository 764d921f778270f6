package kis

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// ParseQuote converts an inquire-price response body into a Quote.
//
// Prices are integers that may carry thousands separators. A missing change
// is derived from current minus previous close, and a missing or zero change
// rate from change over previous close. A current price of 0 is rejected.
func ParseQuote(symbol string, body []byte, now time.Time) (model.Quote, error) {
	var resp PriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Message: "invalid JSON: " + err.Error()}
	}
	if resp.RtCd != "0" {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Code: resp.MsgCd, Message: resp.Msg1}
	}
	if resp.Output == nil {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Field: "output", Message: "missing price payload"}
	}
	out := resp.Output

	current, err := parseInt(out.CurrentPrice)
	if err != nil {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Field: "stck_prpr", Message: err.Error()}
	}
	if current == 0 {
		return model.Quote{}, &apperrors.ParseError{Source: SourceName, Symbol: symbol, Field: "stck_prpr", Message: "current price is 0"}
	}

	previous, _ := parseInt(out.PreviousClose)
	if previous == 0 {
		previous, _ = parseInt(out.BasePrice)
	}

	change, _ := parseInt(out.Change)
	if change == 0 && previous > 0 {
		change = current - previous
	}

	rate, err := model.ParseRate(strings.TrimSpace(out.ChangeRate))
	if err != nil || rate.IsZero() {
		rate = model.PercentOf(change, previous)
	}

	name := strings.TrimSpace(out.Name)
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

// parseInt strips thousands separators and parses a base 10 integer. An
// empty field parses as 0.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
