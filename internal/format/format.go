// Package format holds the number and duration renderings shared by the
// table and text outputs.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Missing is printed for values the API did not report.
const Missing = "—"

var million = decimal.NewFromInt(1_000_000)

// Thousands renders a token count in thousands, e.g. 128000 as "128K".
func Thousands(v int) string {
	return fmt.Sprintf("%dK", int(math.Round(float64(v)/1000)))
}

// OptThousands is [Thousands] for optional values.
func OptThousands(v *int) string {
	if v == nil {
		return Missing
	}
	return Thousands(*v)
}

// PerMillion converts a per-token price into USD per million tokens.
func PerMillion(perToken decimal.Decimal) decimal.Decimal {
	return perToken.Mul(million)
}

// Price renders a per-token price as USD per million tokens with two
// decimals.
func Price(perToken decimal.Decimal, ok bool) string {
	if !ok {
		return Missing
	}
	return PerMillion(perToken).StringFixed(2)
}

// Dollars renders a per-token price as "$x.xx" per million tokens.
func Dollars(perToken decimal.Decimal, ok bool) string {
	if !ok {
		return Missing
	}
	return "$" + Price(perToken, ok)
}

// Percent renders an uptime percentage.
func Percent(v float64, ok bool) string {
	if !ok {
		return Missing
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// Elapsed renders a round trip as whole milliseconds under a second and
// seconds with two decimals otherwise.
func Elapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Cost renders a cost as reported by the API. Zero and missing values are
// shown as 0.00, anything else verbatim.
func Cost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0.00"
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	if d.IsZero() {
		return "0.00"
	}
	return raw
}

// ParseTokens parses a token count such as "128K", "1M", "1.5k" or
// "131072".
func ParseTokens(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", ""))
	if s == "" {
		return 0, fmt.Errorf("empty token count")
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1_000_000
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid token count %q", s)
	}
	return int(math.Round(v * mult)), nil
}

// QuantBits returns the bit width of a quantization label. bf16 counts as
// 16, unspecified labels as unbounded and other labels without digits as 0.
func QuantBits(q string) float64 {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || q == "unknown" {
		return math.Inf(1)
	}
	if strings.Contains(q, "bf16") {
		return 16
	}
	var digits strings.Builder
	for _, r := range q {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return float64(v)
}

// Quant renders a quantization label.
func Quant(q string) string {
	q = strings.TrimSpace(q)
	if q == "" || strings.EqualFold(q, "unknown") {
		return Missing
	}
	return q
}

// Mark renders a capability flag as "+" or "-".
func Mark(b bool) string {
	if b {
		return "+"
	}
	return "-"
}
