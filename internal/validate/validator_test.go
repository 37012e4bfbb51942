package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"financial-statement-service/internal/models"
)

func makeRecord(name string, debit, credit float64) *models.FinancialRecord {
	record := models.NewFinancialRecord(name)
	record.Debit = decimal.NewFromFloat(debit)
	record.Credit = decimal.NewFromFloat(credit)
	return record
}

func TestValidateBalanced(t *testing.T) {
	validator, err := NewValidator(nil, nil)
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	records := []*models.FinancialRecord{
		makeRecord("Cash", 1000, 0),
		makeRecord("Owner Capital", 0, 1000),
	}

	result := validator.Validate(records)

	if !result.IsValid {
		t.Errorf("expected balanced records to be valid, errors: %v", result.Errors)
	}
	if !result.BalanceDifference.IsZero() {
		t.Errorf("expected zero balance difference, got %s", result.BalanceDifference)
	}
	if result.RecordsProcessed != 2 {
		t.Errorf("expected 2 records processed, got %d", result.RecordsProcessed)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateNotBalanced(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	records := []*models.FinancialRecord{
		makeRecord("Cash", 1000, 0),
		makeRecord("Owner Capital", 0, 900),
	}

	result := validator.Validate(records)

	if result.IsValid {
		t.Error("expected unbalanced records to be invalid")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "does not balance") {
		t.Errorf("expected balance error message, got %q", result.Errors[0])
	}
	if !result.BalanceDifference.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected difference 100, got %s", result.BalanceDifference)
	}
}

func TestValidateWithinTolerance(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	records := []*models.FinancialRecord{
		makeRecord("Cash", 100.00, 0),
		makeRecord("Revenue", 0, 99.99),
	}

	result := validator.Validate(records)

	if !result.IsValid {
		t.Errorf("expected difference at tolerance to be valid, errors: %v", result.Errors)
	}
}

func TestValidateWarnings(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	zero := models.NewFinancialRecord("Placeholder Account")
	records := []*models.FinancialRecord{
		makeRecord("X", 500, 0),
		makeRecord("Cash", 0, 500),
		makeRecord("Cash", 0, 0),
		zero,
	}

	result := validator.Validate(records)

	// Warnings do not affect validity
	if !result.IsValid {
		t.Errorf("expected warnings-only result to be valid, errors: %v", result.Errors)
	}
	if result.EmptyAccounts != 1 {
		t.Errorf("expected 1 empty account (short name), got %d", result.EmptyAccounts)
	}
	if result.ZeroAmounts != 2 {
		t.Errorf("expected 2 zero-amount records, got %d", result.ZeroAmounts)
	}

	var hasEmpty, hasZero, hasDuplicate bool
	for _, warning := range result.Warnings {
		switch {
		case strings.Contains(warning, "missing or invalid account names"):
			hasEmpty = true
		case strings.Contains(warning, "zero amounts"):
			hasZero = true
		case strings.Contains(warning, "duplicate account names"):
			hasDuplicate = true
		}
	}
	if !hasEmpty || !hasZero || !hasDuplicate {
		t.Errorf("expected empty/zero/duplicate warnings, got %v", result.Warnings)
	}
}

func TestValidateLargeAmountWarning(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	records := []*models.FinancialRecord{
		makeRecord("Mega Asset", 1000000000.00, 0),
		makeRecord("Mega Capital", 0, 1000000000.00),
	}

	result := validator.Validate(records)

	if !result.IsValid {
		t.Errorf("expected large amounts to warn, not error: %v", result.Errors)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Large amount detected") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected large amount warning, got %v", result.Warnings)
	}
}

func TestValidateEmptyRecordSet(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	result := validator.Validate(nil)

	if !result.IsValid {
		t.Error("expected empty record set to be valid")
	}
	if result.RecordsProcessed != 0 {
		t.Errorf("expected 0 records processed, got %d", result.RecordsProcessed)
	}
	if !result.BalanceDifference.IsZero() {
		t.Errorf("expected zero difference, got %s", result.BalanceDifference)
	}
}

func TestValidateDifferenceInvariant(t *testing.T) {
	validator, _ := NewValidator(nil, nil)

	sets := [][]*models.FinancialRecord{
		{makeRecord("A1", 10.50, 0), makeRecord("B1", 0, 4.25), makeRecord("C1", 3.75, 0)},
		{makeRecord("A2", 0.01, 0)},
		{makeRecord("A3", 999.99, 999.99)},
	}

	for _, records := range sets {
		result := validator.Validate(records)

		expected := result.TotalDebits.Sub(result.TotalCredits).Abs()
		if !result.BalanceDifference.Equal(expected) {
			t.Errorf("balance difference %s does not match |debits-credits| %s",
				result.BalanceDifference, expected)
		}
		if result.IsValid != result.BalanceDifference.LessThanOrEqual(decimal.NewFromFloat(0.01)) {
			t.Errorf("is_valid %v inconsistent with difference %s", result.IsValid, result.BalanceDifference)
		}
	}
}

func TestValidatorConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"negative tolerance", &Config{
			Tolerance: decimal.NewFromInt(-1),
			MaxAmount: decimal.NewFromInt(100),
		}, true},
		{"zero max amount", &Config{
			Tolerance: decimal.Zero,
			MaxAmount: decimal.Zero,
		}, true},
		{"negative name length", &Config{
			Tolerance:            decimal.Zero,
			MaxAmount:            decimal.NewFromInt(100),
			MinAccountNameLength: -1,
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(tt.config, nil)
			if tt.wantErr && err == nil {
				t.Error("expected configuration error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	cash := makeRecord("Cash", 1000, 0)
	cash.AccountType = models.AccountTypeAsset
	cash.Category = "assets"
	cash.Description = "main account"

	revenue := makeRecord("Sales Revenue", 0, 1000)
	revenue.AccountType = models.AccountTypeRevenue
	revenue.Category = "revenue"

	stats := Summarize([]*models.FinancialRecord{cash, revenue})

	if stats.TotalRecords != 2 {
		t.Errorf("expected 2 records, got %d", stats.TotalRecords)
	}
	if stats.AccountTypes[models.AccountTypeAsset] != 1 {
		t.Errorf("expected 1 asset account, got %d", stats.AccountTypes[models.AccountTypeAsset])
	}
	if !stats.LargestCredit.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected largest credit 1000, got %s", stats.LargestCredit)
	}
	if stats.AccountsWithDescription != 1 {
		t.Errorf("expected 1 described account, got %d", stats.AccountsWithDescription)
	}
}
