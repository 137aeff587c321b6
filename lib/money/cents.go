// Package money holds the fixed-point currency type used by the ledger.
// Amounts are kept in minor units (cents) internally and only rendered as
// 2-decimal strings at the boundary.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is a signed amount in minor currency units.
type Cents int64

const Zero Cents = 0

// ParseCents converts a decimal string such as "-25.00" or "0.1" into cents,
// rounding half away from zero at the second decimal place.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParseCents is ParseCents for constants and tests.
func MustParseCents(s string) Cents {
	c, err := ParseCents(s)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(-math.MaxInt64)
)

// FromDecimal rounds d to cents. Amounts outside ±MaxInt64 cents are
// rejected rather than wrapped.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	shifted := d.Shift(2).Round(0)
	if shifted.GreaterThan(maxCents) || shifted.LessThan(minCents) {
		return 0, fmt.Errorf("money: amount %s out of range", d.String())
	}
	return Cents(shifted.IntPart()), nil
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) Negate() Cents { return -c }

func (c Cents) IsZero() bool { return c == 0 }

// String renders the amount with exactly two decimals, e.g. "-40.00".
func (c Cents) String() string {
	sign := ""
	v := uint64(c)
	if c < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Display renders the amount for notifications: "$40.00", "-$40.00".
func (c Cents) Display() string {
	s := c.String()
	if c < 0 {
		return "-$" + s[1:]
	}
	return "$" + s
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	parsed, err := ParseCents(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Cents) Value() (driver.Value, error) {
	return int64(c), nil
}

func (c *Cents) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
	case int64:
		*c = Cents(v)
	case int32:
		*c = Cents(v)
	case float64:
		*c = Cents(v)
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	default:
		return fmt.Errorf("money: unsupported scan type %T", src)
	}
	return nil
}

func (c *Cents) scanString(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("money: invalid stored amount %q: %w", s, err)
	}
	*c = Cents(n)
	return nil
}

// Sum adds up amounts without leaving integer arithmetic.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
