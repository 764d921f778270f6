package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// RateScale is the number of fractional digits every rate carries.
const RateScale = 2

var hundred = decimal.NewFromInt(100)

// Rate is a percentage with exactly two fractional digits, e.g. 5.00 for 5%.
// The zero value is 0.00.
type Rate struct {
	d decimal.Decimal
}

// NewRate rounds d half away from zero to two digits.
func NewRate(d decimal.Decimal) Rate {
	return Rate{d: d.Round(RateScale)}
}

// RateFromFloat converts f to a Rate.
func RateFromFloat(f float64) Rate {
	return NewRate(decimal.NewFromFloat(f))
}

// ParseRate parses a decimal string such as "2.08" or "-0.5".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return NewRate(d), nil
}

// PercentOf returns part/whole*100 as a Rate, or 0 when whole is 0.
func PercentOf(part, whole int64) Rate {
	if whole == 0 {
		return Rate{}
	}
	d := decimal.NewFromInt(part).Div(decimal.NewFromInt(whole)).Mul(hundred)
	return NewRate(d)
}

func (r Rate) Decimal() decimal.Decimal { return r.d }

func (r Rate) Float64() float64 {
	f, _ := r.d.Float64()
	return f
}

func (r Rate) IsZero() bool { return r.d.IsZero() }

// Cmp compares r and o, returning -1, 0 or +1.
func (r Rate) Cmp(o Rate) int { return r.d.Cmp(o.d) }

func (r Rate) Neg() Rate { return Rate{d: r.d.Neg()} }

func (r Rate) Abs() Rate { return Rate{d: r.d.Abs()} }

func (r Rate) String() string { return r.d.StringFixed(RateScale) }

// MarshalJSON writes the rate as a bare JSON number with two digits.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (r *Rate) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*r = Rate{}
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the rate as its fixed two digit text.
func (r Rate) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan reads a rate from NUMERIC, REAL, INTEGER or TEXT storage.
func (r *Rate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Rate{}
	case int64:
		*r = NewRate(decimal.NewFromInt(v))
	case float64:
		*r = NewRate(decimal.NewFromFloat(v))
	case []byte:
		return r.scanString(string(v))
	case string:
		return r.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Rate", src)
	}
	return nil
}

func (r *Rate) scanString(s string) error {
	parsed, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var (
	_ msgpack.CustomEncoder = Rate{}
	_ msgpack.CustomDecoder = (*Rate)(nil)
)

// EncodeMsgpack writes the rate as its fixed two digit text so no precision
// is lost across the wire.
func (r Rate) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(r.String())
}

func (r *Rate) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return r.scanString(s)
}
