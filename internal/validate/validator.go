package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"financial-statement-service/internal/models"
	"financial-statement-service/pkg/logger"
)

// Config holds validation rules
type Config struct {
	// Tolerance is the maximum acceptable absolute difference between
	// aggregate debits and credits
	Tolerance decimal.Decimal `json:"tolerance"`
	// MaxAmount is the ceiling above which a debit or credit draws a warning
	MaxAmount decimal.Decimal `json:"max_amount"`
	// MinAccountNameLength is the minimum length for an account name to
	// not count as empty
	MinAccountNameLength int `json:"min_account_name_length"`
}

// DefaultConfig returns the default validation rules
func DefaultConfig() *Config {
	return &Config{
		Tolerance:            decimal.NewFromFloat(0.01),
		MaxAmount:            decimal.NewFromFloat(999999999.99),
		MinAccountNameLength: 2,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance cannot be negative")
	}
	if c.MaxAmount.Sign() <= 0 {
		return fmt.Errorf("max amount must be positive")
	}
	if c.MinAccountNameLength < 0 {
		return fmt.Errorf("min account name length cannot be negative")
	}
	return nil
}

// Validator checks financial record sets for double-entry balance and
// data quality issues.
type Validator struct {
	config *Config
	logger logger.Logger
}

// NewValidator creates a new Validator. A nil config uses the defaults;
// a nil logger discards log output.
func NewValidator(config *Config, log logger.Logger) (*Validator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validator configuration: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Validator{
		config: config,
		logger: log.WithComponent("validator"),
	}, nil
}

// Validate computes aggregate debit/credit totals and produces a
// pass/fail verdict. An out-of-tolerance balance difference is the only
// error condition; empty accounts, zero amounts, duplicates and
// oversized amounts are warnings and do not block the pipeline.
func (v *Validator) Validate(records []*models.FinancialRecord) *models.ValidationResult {
	v.logger.Infof("Validating %d financial records", len(records))

	errors := []string{}
	warnings := []string{}
	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	emptyAccounts := 0
	zeroAmounts := 0

	for _, record := range records {
		totalDebits = totalDebits.Add(record.Debit)
		totalCredits = totalCredits.Add(record.Credit)

		if len(record.AccountName) < v.config.MinAccountNameLength {
			emptyAccounts++
		}

		if record.IsZero() {
			zeroAmounts++
		}

		if record.Debit.GreaterThan(v.config.MaxAmount) || record.Credit.GreaterThan(v.config.MaxAmount) {
			largest := record.Debit
			if record.Credit.GreaterThan(largest) {
				largest = record.Credit
			}
			warnings = append(warnings, fmt.Sprintf(
				"Large amount detected in account '%s': $%s", record.AccountName, largest.StringFixed(2)))
		}
	}

	balanceDifference := totalDebits.Sub(totalCredits).Abs()

	if balanceDifference.GreaterThan(v.config.Tolerance) {
		errors = append(errors, fmt.Sprintf(
			"Trial balance does not balance: Debits ($%s) != Credits ($%s), Difference: $%s",
			totalDebits.StringFixed(2), totalCredits.StringFixed(2), balanceDifference.StringFixed(2)))
	}

	if emptyAccounts > 0 {
		warnings = append(warnings, fmt.Sprintf("%d records have missing or invalid account names", emptyAccounts))
	}
	if zeroAmounts > 0 {
		warnings = append(warnings, fmt.Sprintf("%d records have zero amounts", zeroAmounts))
	}

	if duplicates := countDuplicateNames(records); duplicates > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate account names detected", duplicates))
	}

	result := &models.ValidationResult{
		IsValid:           len(errors) == 0,
		Errors:            errors,
		Warnings:          warnings,
		TotalDebits:       totalDebits,
		TotalCredits:      totalCredits,
		BalanceDifference: balanceDifference,
		RecordsProcessed:  len(records),
		EmptyAccounts:     emptyAccounts,
		ZeroAmounts:       zeroAmounts,
	}

	status := "PASSED"
	if !result.IsValid {
		status = "FAILED"
	}
	v.logger.WithFields(logger.Fields{
		"status":   status,
		"errors":   len(errors),
		"warnings": len(warnings),
	}).Info("Validation complete")

	return result
}

// countDuplicateNames returns the set-cardinality difference over
// non-empty account names.
func countDuplicateNames(records []*models.FinancialRecord) int {
	total := 0
	seen := make(map[string]bool)
	for _, record := range records {
		if record.AccountName == "" {
			continue
		}
		total++
		seen[record.AccountName] = true
	}
	return total - len(seen)
}

// SummaryStatistics describes a record set for diagnostics and audit
// payloads.
type SummaryStatistics struct {
	TotalRecords            int                        `json:"total_records"`
	AccountTypes            map[models.AccountType]int `json:"account_types"`
	Categories              map[string]int             `json:"categories"`
	TotalDebits             decimal.Decimal            `json:"total_debits"`
	TotalCredits            decimal.Decimal            `json:"total_credits"`
	LargestDebit            decimal.Decimal            `json:"largest_debit"`
	LargestCredit           decimal.Decimal            `json:"largest_credit"`
	AccountsWithDescription int                        `json:"accounts_with_description"`
}

// Summarize generates summary statistics for a record set
func Summarize(records []*models.FinancialRecord) *SummaryStatistics {
	stats := &SummaryStatistics{
		TotalRecords:  len(records),
		AccountTypes:  make(map[models.AccountType]int),
		Categories:    make(map[string]int),
		TotalDebits:   decimal.Zero,
		TotalCredits:  decimal.Zero,
		LargestDebit:  decimal.Zero,
		LargestCredit: decimal.Zero,
	}

	for _, record := range records {
		stats.TotalDebits = stats.TotalDebits.Add(record.Debit)
		stats.TotalCredits = stats.TotalCredits.Add(record.Credit)

		if record.Debit.GreaterThan(stats.LargestDebit) {
			stats.LargestDebit = record.Debit
		}
		if record.Credit.GreaterThan(stats.LargestCredit) {
			stats.LargestCredit = record.Credit
		}

		stats.AccountTypes[record.AccountType]++
		if record.Category != "" {
			stats.Categories[record.Category]++
		}
		if record.Description != "" {
			stats.AccountsWithDescription++
		}
	}

	return stats
}
