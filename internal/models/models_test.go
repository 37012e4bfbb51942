package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountType(t *testing.T) {
	tests := []struct {
		name            string
		accountType     AccountType
		valid           bool
		balanceSheet    bool
		incomeStatement bool
	}{
		{"asset", AccountTypeAsset, true, true, false},
		{"liability", AccountTypeLiability, true, true, false},
		{"equity", AccountTypeEquity, true, true, false},
		{"revenue", AccountTypeRevenue, true, false, true},
		{"expense", AccountTypeExpense, true, false, true},
		{"unknown", AccountTypeUnknown, true, false, false},
		{"invalid", AccountType("Bogus"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.accountType.IsValid() != tt.valid {
				t.Errorf("expected IsValid %v, got %v", tt.valid, tt.accountType.IsValid())
			}
			if tt.accountType.IsBalanceSheet() != tt.balanceSheet {
				t.Errorf("expected IsBalanceSheet %v, got %v", tt.balanceSheet, tt.accountType.IsBalanceSheet())
			}
			if tt.accountType.IsIncomeStatement() != tt.incomeStatement {
				t.Errorf("expected IsIncomeStatement %v, got %v", tt.incomeStatement, tt.accountType.IsIncomeStatement())
			}
		})
	}
}

func TestFinancialRecordHelpers(t *testing.T) {
	record := NewFinancialRecord("  Cash  ")
	if record.AccountName != "Cash" {
		t.Errorf("expected trimmed account name 'Cash', got '%s'", record.AccountName)
	}
	if !record.IsZero() {
		t.Error("expected new record to have zero amounts")
	}

	record.Debit = decimal.NewFromInt(100)
	if record.IsZero() {
		t.Error("expected record with debit to be non-zero")
	}
	if !record.DebitOrBalance().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected DebitOrBalance 100, got %s", record.DebitOrBalance())
	}

	balanceOnly := NewFinancialRecord("Equipment")
	balanceOnly.Balance = decimal.NewFromInt(250)
	if !balanceOnly.DebitOrBalance().Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected DebitOrBalance to fall back to balance, got %s", balanceOnly.DebitOrBalance())
	}

	creditNormal := NewFinancialRecord("Accounts Payable")
	creditNormal.Balance = decimal.NewFromInt(-300)
	if !creditNormal.CreditOrAbsBalance().Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected CreditOrAbsBalance to use absolute balance, got %s", creditNormal.CreditOrAbsBalance())
	}
}

func TestFinancialRecordJSONRoundTrip(t *testing.T) {
	amount := decimal.NewFromFloat(1234.56)
	record := &FinancialRecord{
		AccountName:    "Sales Revenue",
		Debit:          decimal.Zero,
		Credit:         decimal.NewFromFloat(1234.56),
		Balance:        decimal.Zero,
		AccountType:    AccountTypeRevenue,
		Category:       "revenue",
		OriginalAmount: &amount,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}

	var decoded FinancialRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal record: %v", err)
	}

	if !record.Equals(&decoded) {
		t.Errorf("expected round-tripped record to equal original, got %s", decoded.String())
	}
}

func TestRawTableCell(t *testing.T) {
	table := NewRawTable(
		[]string{"Account", "Debit", "Credit"},
		[][]string{
			{"Cash", "1000", "0"},
			{"Revenue", "0"},
		},
	)

	if table.IsEmpty() {
		t.Error("expected table with rows to be non-empty")
	}
	if table.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", table.RowCount())
	}

	value, ok := table.Cell(0, "Debit")
	if !ok || value != "1000" {
		t.Errorf("expected cell (0, Debit) = '1000', got '%s' ok=%v", value, ok)
	}

	// Short row yields empty value for missing column
	value, ok = table.Cell(1, "Credit")
	if !ok || value != "" {
		t.Errorf("expected empty value for short row, got '%s' ok=%v", value, ok)
	}

	// Unknown header reports not found
	if _, ok := table.Cell(0, "Missing"); ok {
		t.Error("expected unknown header to report not found")
	}

	var nilTable *RawTable
	if !nilTable.IsEmpty() {
		t.Error("expected nil table to be empty")
	}
}

func TestParseTemplateID(t *testing.T) {
	tests := []struct {
		input    string
		expected TemplateID
		wantErr  bool
	}{
		{"balance_sheet", TemplateBalanceSheet, false},
		{"  Profit_Loss  ", TemplateProfitLoss, false},
		{"trial_balance", TemplateTrialBalance, false},
		{"cash_flow", TemplateCashFlow, false},
		{"ledger", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := ParseTemplateID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for input '%s'", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, id)
			}
		})
	}
}
