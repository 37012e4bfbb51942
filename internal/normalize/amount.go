package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses heterogeneous numeric text into a signed decimal.
// It never fails: any unparseable input degrades to zero. Handles
// currency symbols, thousands separators and parenthesized negatives.
// European "1.234,56" formatting is a known gap and is not handled.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}

	switch strings.ToLower(trimmed) {
	case "nan", "null", "none":
		return decimal.Zero
	}

	// Keep only digits, separators, parentheses and the minus sign
	var builder strings.Builder
	for _, r := range trimmed {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '(' || r == ')' || r == '-' {
			builder.WriteRune(r)
		}
	}
	cleaned := builder.String()

	// Parenthesized values are negative
	isNegative := false
	if strings.Contains(trimmed, "(") && strings.Contains(trimmed, ")") {
		isNegative = true
		cleaned = strings.ReplaceAll(cleaned, "(", "")
		cleaned = strings.ReplaceAll(cleaned, ")", "")
	}

	// Separator disambiguation
	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	if hasComma && hasDot {
		// Comma is a thousands separator when the dot carries a short
		// fractional part
		parts := strings.Split(cleaned, ".")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.ReplaceAll(parts[0], ",", "") + "." + parts[1]
		}
	} else if hasComma {
		// A single comma followed by at most two digits reads as a
		// decimal point, anything else as thousands separators
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	if cleaned == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}

	if isNegative {
		amount = amount.Neg()
	}

	return amount
}
