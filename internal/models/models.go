package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType represents the accounting classification of an account
type AccountType string

const (
	// AccountTypeAsset represents asset accounts
	AccountTypeAsset AccountType = "Asset"
	// AccountTypeLiability represents liability accounts
	AccountTypeLiability AccountType = "Liability"
	// AccountTypeEquity represents equity accounts
	AccountTypeEquity AccountType = "Equity"
	// AccountTypeRevenue represents revenue accounts
	AccountTypeRevenue AccountType = "Revenue"
	// AccountTypeExpense represents expense accounts
	AccountTypeExpense AccountType = "Expense"
	// AccountTypeUnknown represents accounts that could not be classified
	AccountTypeUnknown AccountType = "Unknown"
)

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense, AccountTypeUnknown:
		return true
	}
	return false
}

// IsBalanceSheet returns true for types that appear on a balance sheet
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// IsIncomeStatement returns true for types that appear on an income statement
func (t AccountType) IsIncomeStatement() bool {
	return t == AccountTypeRevenue || t == AccountTypeExpense
}

// FinancialRecord represents one normalized ledger line
type FinancialRecord struct {
	AccountName    string           `json:"account_name"`
	Debit          decimal.Decimal  `json:"debit"`
	Credit         decimal.Decimal  `json:"credit"`
	Balance        decimal.Decimal  `json:"balance"`
	AccountType    AccountType      `json:"account_type"`
	Category       string           `json:"category"`
	Description    string           `json:"description,omitempty"`
	OriginalAmount *decimal.Decimal `json:"original_amount,omitempty"`
}

// NewFinancialRecord creates a new FinancialRecord with zero amounts
func NewFinancialRecord(accountName string) *FinancialRecord {
	return &FinancialRecord{
		AccountName: strings.TrimSpace(accountName),
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		Balance:     decimal.Zero,
		AccountType: AccountTypeUnknown,
	}
}

// IsZero returns true when debit, credit and balance are all zero
func (r *FinancialRecord) IsZero() bool {
	return r.Debit.IsZero() && r.Credit.IsZero() && r.Balance.IsZero()
}

// DebitOrBalance returns the debit amount, falling back to the balance
// when no debit was recorded. Used for debit-normal statement buckets.
func (r *FinancialRecord) DebitOrBalance() decimal.Decimal {
	if !r.Debit.IsZero() {
		return r.Debit
	}
	return r.Balance
}

// CreditOrAbsBalance returns the credit amount, falling back to the
// absolute balance when no credit was recorded. Used for credit-normal
// statement buckets.
func (r *FinancialRecord) CreditOrAbsBalance() decimal.Decimal {
	if !r.Credit.IsZero() {
		return r.Credit
	}
	return r.Balance.Abs()
}

// String returns a string representation of the FinancialRecord
func (r *FinancialRecord) String() string {
	return fmt.Sprintf("FinancialRecord{Account: %s, Type: %s, Debit: %s, Credit: %s, Balance: %s}",
		r.AccountName, r.AccountType, r.Debit.String(), r.Credit.String(), r.Balance.String())
}

// MarshalJSON implements custom JSON marshaling for FinancialRecord
func (r *FinancialRecord) MarshalJSON() ([]byte, error) {
	type Alias FinancialRecord
	aux := &struct {
		Debit          string  `json:"debit"`
		Credit         string  `json:"credit"`
		Balance        string  `json:"balance"`
		OriginalAmount *string `json:"original_amount,omitempty"`
		*Alias
	}{
		Debit:   r.Debit.String(),
		Credit:  r.Credit.String(),
		Balance: r.Balance.String(),
		Alias:   (*Alias)(r),
	}
	if r.OriginalAmount != nil {
		s := r.OriginalAmount.String()
		aux.OriginalAmount = &s
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for FinancialRecord
func (r *FinancialRecord) UnmarshalJSON(data []byte) error {
	type Alias FinancialRecord
	aux := &struct {
		Debit          string  `json:"debit"`
		Credit         string  `json:"credit"`
		Balance        string  `json:"balance"`
		OriginalAmount *string `json:"original_amount,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	r.Debit, err = decimal.NewFromString(aux.Debit)
	if err != nil {
		return fmt.Errorf("invalid debit format: %w", err)
	}
	r.Credit, err = decimal.NewFromString(aux.Credit)
	if err != nil {
		return fmt.Errorf("invalid credit format: %w", err)
	}
	r.Balance, err = decimal.NewFromString(aux.Balance)
	if err != nil {
		return fmt.Errorf("invalid balance format: %w", err)
	}
	if aux.OriginalAmount != nil {
		amount, err := decimal.NewFromString(*aux.OriginalAmount)
		if err != nil {
			return fmt.Errorf("invalid original amount format: %w", err)
		}
		r.OriginalAmount = &amount
	}

	return nil
}

// Equals compares two FinancialRecord instances for equality
func (r *FinancialRecord) Equals(other *FinancialRecord) bool {
	if other == nil {
		return false
	}

	if r.OriginalAmount != nil || other.OriginalAmount != nil {
		if r.OriginalAmount == nil || other.OriginalAmount == nil {
			return false
		}
		if !r.OriginalAmount.Equal(*other.OriginalAmount) {
			return false
		}
	}

	return r.AccountName == other.AccountName &&
		r.Debit.Equal(other.Debit) &&
		r.Credit.Equal(other.Credit) &&
		r.Balance.Equal(other.Balance) &&
		r.AccountType == other.AccountType &&
		r.Category == other.Category &&
		r.Description == other.Description
}

// ValidationResult represents the aggregate verdict over a record set
type ValidationResult struct {
	IsValid           bool            `json:"is_valid"`
	Errors            []string        `json:"errors"`
	Warnings          []string        `json:"warnings"`
	TotalDebits       decimal.Decimal `json:"total_debits"`
	TotalCredits      decimal.Decimal `json:"total_credits"`
	BalanceDifference decimal.Decimal `json:"balance_difference"`
	RecordsProcessed  int             `json:"records_processed"`
	EmptyAccounts     int             `json:"empty_accounts"`
	ZeroAmounts       int             `json:"zero_amounts"`
}

// String returns a string representation of the ValidationResult
func (v *ValidationResult) String() string {
	status := "FAILED"
	if v.IsValid {
		status = "PASSED"
	}
	return fmt.Sprintf("ValidationResult{%s, Records: %d, Debits: %s, Credits: %s, Difference: %s}",
		status, v.RecordsProcessed, v.TotalDebits.String(), v.TotalCredits.String(), v.BalanceDifference.String())
}

// RawTable represents an extracted tabular dataset with unreliable column identity
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewRawTable creates a RawTable from headers and rows
func NewRawTable(headers []string, rows [][]string) *RawTable {
	return &RawTable{Headers: headers, Rows: rows}
}

// IsEmpty returns true when the table contains no data rows
func (t *RawTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// RowCount returns the number of data rows
func (t *RawTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the value at the given row under the given header, and
// whether the header exists. Rows shorter than the header list yield
// empty values for the missing columns.
func (t *RawTable) Cell(row int, header string) (string, bool) {
	col := -1
	for i, h := range t.Headers {
		if h == header {
			col = i
			break
		}
	}
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return "", col >= 0
	}
	if col >= len(t.Rows[row]) {
		return "", true
	}
	return t.Rows[row][col], true
}

// ExtractionResult represents the outcome of tabular data extraction
type ExtractionResult struct {
	Success  bool                   `json:"success"`
	Table    *RawTable              `json:"table,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Errors   []string               `json:"errors,omitempty"`
}

// TemplateID identifies a statement template
type TemplateID string

const (
	// TemplateBalanceSheet is the balance sheet statement template
	TemplateBalanceSheet TemplateID = "balance_sheet"
	// TemplateProfitLoss is the profit and loss statement template
	TemplateProfitLoss TemplateID = "profit_loss"
	// TemplateTrialBalance is the trial balance statement template
	TemplateTrialBalance TemplateID = "trial_balance"
	// TemplateCashFlow is the cash flow statement template
	TemplateCashFlow TemplateID = "cash_flow"
)

// String returns the string representation of TemplateID
func (t TemplateID) String() string {
	return string(t)
}

// IsValid checks if the template identifier is known
func (t TemplateID) IsValid() bool {
	switch t {
	case TemplateBalanceSheet, TemplateProfitLoss, TemplateTrialBalance, TemplateCashFlow:
		return true
	}
	return false
}

// ParseTemplateID parses and validates a template identifier from string
func ParseTemplateID(s string) (TemplateID, error) {
	id := TemplateID(strings.ToLower(strings.TrimSpace(s)))
	if !id.IsValid() {
		return "", fmt.Errorf("invalid template identifier '%s': must be one of balance_sheet, profit_loss, trial_balance, cash_flow", s)
	}
	return id, nil
}
