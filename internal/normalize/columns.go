package normalize

import (
	"regexp"
	"strings"
)

// Canonical column names produced by the column mapper
const (
	ColumnAccountName = "account_name"
	ColumnDebit       = "debit"
	ColumnCredit      = "credit"
	ColumnBalance     = "balance"
	ColumnAmount      = "amount"
	ColumnType        = "type"
	ColumnDescription = "description"
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// MapColumns maps arbitrary source column headers to canonical names
// using keyword heuristics. Each canonical target is claimed by at most
// one header for the exclusive targets (account name, amount); headers
// matching no rule are left out of the mapping and pass through
// unchanged. This is a best-effort heuristic, not a schema validator.
func MapColumns(headers []string) map[string]string {
	mapping := make(map[string]string)
	claimed := make(map[string]bool)

	for _, header := range headers {
		cleaned := nonWordPattern.ReplaceAllString(strings.TrimSpace(strings.ToLower(header)), "")

		switch {
		case strings.Contains(cleaned, "account") && !claimed[ColumnAccountName]:
			mapping[header] = ColumnAccountName
			claimed[ColumnAccountName] = true
		case strings.Contains(cleaned, "name") && !claimed[ColumnAccountName] && !strings.Contains(cleaned, "account"):
			mapping[header] = ColumnAccountName
			claimed[ColumnAccountName] = true
		case strings.Contains(cleaned, "debit"):
			mapping[header] = ColumnDebit
		case strings.Contains(cleaned, "credit"):
			mapping[header] = ColumnCredit
		case strings.Contains(cleaned, "balance"):
			mapping[header] = ColumnBalance
		case containsAny(cleaned, "amount", "value", "total") && !claimed[ColumnAmount]:
			mapping[header] = ColumnAmount
			claimed[ColumnAmount] = true
		case strings.Contains(cleaned, "type"):
			mapping[header] = ColumnType
		case strings.Contains(cleaned, "description"):
			mapping[header] = ColumnDescription
		}
	}

	return mapping
}

// ColumnIndex resolves canonical column names back to the source header
// claiming them. When several headers map to the same canonical name
// the earliest header wins.
func ColumnIndex(headers []string, mapping map[string]string) map[string]string {
	index := make(map[string]string)
	for _, header := range headers {
		canonical, ok := mapping[header]
		if !ok {
			continue
		}
		if _, taken := index[canonical]; !taken {
			index[canonical] = header
		}
	}
	return index
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
