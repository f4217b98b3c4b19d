package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/docuforge/docuforge/internal/form"
)

// ZeroEuros is what formatCurrency yields for missing, zero or unparseable input.
const ZeroEuros = "0,00 €"

type helper int

const (
	helperNone helper = iota
	helperFormatDate
	helperFormatCurrency
	helperUpper
	helperLower
)

var helperNames = map[string]helper{
	"formatDate":     helperFormatDate,
	"formatCurrency": helperFormatCurrency,
	"upper":          helperUpper,
	"lower":          helperLower,
}

func lookupHelper(name string) (helper, bool) {
	h, ok := helperNames[name]
	return h, ok
}

// HelperNames lists the helpers a template may call.
func HelperNames() []string {
	return []string{"formatDate", "formatCurrency", "upper", "lower"}
}

// apply runs the helper on v. present is false when the argument is missing
// from the value map.
func (h helper) apply(v form.Value, present bool) string {
	switch h {
	case helperFormatDate:
		if !present || v.IsEmpty() {
			return ""
		}
		return FormatDate(v)
	case helperFormatCurrency:
		if !present {
			return ZeroEuros
		}
		n, ok := v.Float()
		if !ok {
			return ZeroEuros
		}
		return FormatCurrency(n)
	case helperUpper:
		return strings.ToUpper(v.Raw())
	case helperLower:
		return strings.ToLower(v.Raw())
	default:
		return v.Raw()
	}
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatDate renders a date value in French long form ("15 janvier 2024").
// Text that does not parse as a date is returned unchanged.
func FormatDate(v form.Value) string {
	t, ok := v.Time()
	if !ok {
		return v.Raw()
	}
	return strconv.Itoa(t.Day()) + " " + frenchMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// FormatCurrency renders an amount in euros with French conventions:
// space-grouped thousands, comma decimals, trailing " €".
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ZeroEuros
	}
	fixed := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	units, frac, _ := strings.Cut(fixed, ".")
	if strings.Trim(units, "0") == "" && frac == "00" {
		return ZeroEuros
	}
	var b strings.Builder
	if amount < 0 {
		b.WriteByte('-')
	}
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString(" €")
	return b.String()
}
