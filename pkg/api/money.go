package api

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

var moneyCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// Money is an exact decimal amount in yuan. The zero value is 0.00.
// Values are immutable; they are stored as integer cents.
type Money struct{ d *apd.Decimal }

func (m Money) dec() *apd.Decimal {
	if m.d == nil {
		return new(apd.Decimal)
	}
	return m.d
}

// ParseMoney reads a decimal string such as "12.5". Amounts are rounded to
// cents.
func ParseMoney(s string) (Money, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Money{}, fmt.Errorf("parse money %q: not a finite number", s)
	}
	q := new(apd.Decimal)
	if _, err := moneyCtx.Quantize(q, d, -2); err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: q}, nil
}

// MustMoney is ParseMoney for literals.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func Cents(c int64) Money {
	return Money{d: apd.New(c, -2)}
}

func (m Money) Add(o Money) Money {
	r := new(apd.Decimal)
	_, _ = moneyCtx.Add(r, m.dec(), o.dec())
	return Money{d: r}
}

func (m Money) MulInt(n int64) Money {
	r := new(apd.Decimal)
	_, _ = moneyCtx.Mul(r, m.dec(), apd.New(n, 0))
	return Money{d: r}
}

func (m Money) Sign() int { return m.dec().Sign() }

func (m Money) Cmp(o Money) int { return m.dec().Cmp(o.dec()) }

// Cents returns the amount in cents, rounding half up.
func (m Money) Cents() int64 {
	var c apd.Decimal
	_, _ = moneyCtx.Quantize(&c, m.dec(), -2)
	c.Exponent = 0
	n, err := c.Int64()
	if err != nil {
		return 0
	}
	return n
}

// String formats with exactly two decimals.
func (m Money) String() string {
	var q apd.Decimal
	_, _ = moneyCtx.Quantize(&q, m.dec(), -2)
	return q.Text('f')
}

func (m Money) Value() (driver.Value, error) { return m.Cents(), nil }

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
	case int64:
		*m = Cents(v)
	case float64:
		*m = Cents(int64(v))
	case []byte:
		return m.Scan(string(v))
	case string:
		p, err := ParseMoney(v)
		if err != nil {
			return err
		}
		*m = p
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		s = n.String()
	}
	p, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// MarshalYAML lets fixtures and reports carry amounts as plain strings.
func (m Money) MarshalYAML() (any, error) { return m.String(), nil }
