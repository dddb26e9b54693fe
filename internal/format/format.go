// Package format renders token values for terminal output.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pulse-token-board/internal/domain"
)

// DefaultLogo is shown when a token has no image.
const DefaultLogo = "/images/tokens/default-token.svg"

var printer = message.NewPrinter(language.English)

// USD renders an amount with a K/M/B suffix, e.g. $4.56M.
func USD(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "$0"
	}
	switch {
	case n >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("$%.2fK", n/1e3)
	default:
		return fmt.Sprintf("$%.2f", n)
	}
}

// Price renders a token price with precision adapted to its magnitude.
func Price(p float64) string {
	switch {
	case math.IsNaN(p) || math.IsInf(p, 0):
		return "$0"
	case p == 0:
		return "$0.00"
	case p < 0.000001:
		return "$" + exponent(p, 4)
	case p < 0.01:
		return "$" + trimZeros(strconv.FormatFloat(p, 'f', 8, 64))
	case p < 1:
		return "$" + trimZeros(strconv.FormatFloat(p, 'f', 6, 64))
	case p < 100:
		return "$" + trimZeros(strconv.FormatFloat(p, 'f', 4, 64))
	default:
		return "$" + trimZeros(printer.Sprintf("%.2f", p))
	}
}

// PriceDecimal renders a nullable decimal price. Nil renders as N/A.
func PriceDecimal(p *decimal.Decimal) string {
	if p == nil {
		return "N/A"
	}
	f, _ := p.Float64()
	return Price(f)
}

// Percent renders a signed percentage, or "-" when unknown.
func Percent(v *float64) string {
	if v == nil {
		return "-"
	}
	sign := ""
	if *v >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, *v)
}

// Age renders the time since ms (unix milliseconds) as 5s, 3m, 2h, 4d, 1mo or 2y.
func Age(ms int64, now time.Time) string {
	if ms == 0 {
		return "N/A"
	}
	sec := float64(now.UnixMilli()-ms) / 1000
	switch {
	case sec < 60:
		return fmt.Sprintf("%ds", int64(math.Floor(sec)))
	case sec < 3600:
		return fmt.Sprintf("%dm", int64(sec/60))
	case sec < 86400:
		return fmt.Sprintf("%dh", int64(sec/3600))
	case sec < 2592000:
		return fmt.Sprintf("%dd", int64(sec/86400))
	case sec < 31536000:
		return fmt.Sprintf("%dmo", int64(sec/2592000))
	default:
		return fmt.Sprintf("%dy", int64(sec/31536000))
	}
}

// TruncateAddress keeps start leading and end trailing characters.
func TruncateAddress(addr string, start, end int) string {
	if addr == "" || len(addr) <= start+end {
		return addr
	}
	return addr[:start] + "..." + addr[len(addr)-end:]
}

// LogoURL returns the record's logo or the default image.
func LogoURL(rec domain.TokenRecord) string {
	if rec.LogoURL != "" {
		return rec.LogoURL
	}
	return DefaultLogo
}

// trimZeros drops trailing fractional zeros and a dangling point.
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// exponent formats like 1.2346e-7, without Go's zero-padded exponent.
func exponent(f float64, digits int) string {
	s := strconv.FormatFloat(f, 'e', digits, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[:1]
	digitsPart := strings.TrimLeft(exp[1:], "0")
	if digitsPart == "" {
		digitsPart = "0"
	}
	return mant + "e" + sign + digitsPart
}
