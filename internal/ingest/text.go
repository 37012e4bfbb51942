package ingest

import (
	"regexp"
	"strings"

	"financial-statement-service/internal/models"
	"financial-statement-service/internal/normalize"
)

var (
	// Lines carrying something that looks like a financial amount
	financialLinePattern = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d+\.\d{2}`)

	// Column boundaries: runs of 2+ spaces, tabs, or transitions
	// between a number and a word (marked first, then split on the
	// marker since RE2 has no lookaround)
	digitToWordBoundary  = regexp.MustCompile(`(\d)\s+([A-Za-z])`)
	wordToAmountBoundary = regexp.MustCompile(`([A-Za-z])\s+(\$?\d)`)
	columnSplitPattern   = regexp.MustCompile("\\s{2,}|\t|\x1f")
)

// parseTabularText attempts to recover Account/Debit/Credit or
// Account/Amount rows from free-form statement text. It returns nil
// when fewer than two plausible rows are found, signalling the caller
// to fall back to raw text.
func parseTabularText(text string, maxLines int) *models.RawTable {
	var financialLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if financialLinePattern.MatchString(line) {
			financialLines = append(financialLines, line)
		}
	}

	if len(financialLines) < 2 {
		return nil
	}
	if len(financialLines) > maxLines {
		financialLines = financialLines[:maxLines]
	}

	type parsedRow struct {
		account string
		debit   string
		credit  string
		amount  string
	}

	var parsed []parsedRow
	hasDebitCredit := false
	hasAmount := false

	for _, line := range financialLines {
		marked := digitToWordBoundary.ReplaceAllString(line, "$1\x1f$2")
		marked = wordToAmountBoundary.ReplaceAllString(marked, "$1\x1f$2")

		var parts []string
		for _, part := range columnSplitPattern.Split(marked, -1) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) < 2 {
			continue
		}

		row := parsedRow{account: parts[0]}
		if len(parts) >= 3 {
			row.debit = extractAmount(parts[1])
			row.credit = extractAmount(parts[2])
			hasDebitCredit = true
		} else {
			row.amount = extractAmount(parts[1])
			hasAmount = true
		}
		parsed = append(parsed, row)
	}

	if len(parsed) < 2 {
		return nil
	}

	headers := []string{"Account"}
	if hasDebitCredit {
		headers = append(headers, "Debit", "Credit")
	}
	if hasAmount {
		headers = append(headers, "Amount")
	}

	rows := make([][]string, 0, len(parsed))
	for _, row := range parsed {
		fields := []string{row.account}
		if hasDebitCredit {
			fields = append(fields, row.debit, row.credit)
		}
		if hasAmount {
			fields = append(fields, row.amount)
		}
		rows = append(rows, fields)
	}

	return models.NewRawTable(headers, rows)
}

// extractAmount reduces a text fragment to its numeric value as a
// string, degrading to "0" when nothing numeric survives.
func extractAmount(text string) string {
	return normalize.ParseAmount(text).String()
}
