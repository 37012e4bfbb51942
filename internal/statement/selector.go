package statement

import (
	"financial-statement-service/internal/models"
	"financial-statement-service/pkg/logger"
)

// Selector picks the statement template matching the dominant
// account-type mix of a record set.
type Selector struct {
	logger logger.Logger
}

// NewSelector creates a new Selector. A nil logger discards log output.
func NewSelector(log logger.Logger) *Selector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Selector{logger: log.WithComponent("selector")}
}

// Select classifies the record set and returns the template to use.
// Mostly asset/liability/equity accounts select the balance sheet at a
// 60% share, mostly revenue/expense accounts select the profit and
// loss statement at a 50% share, and everything else, including the
// empty set, falls back to the trial balance. The share comparisons
// use integer arithmetic so the boundaries are exact.
func (s *Selector) Select(records []*models.FinancialRecord) models.TemplateID {
	if len(records) == 0 {
		return models.TemplateTrialBalance
	}

	total := len(records)
	bsCount := 0
	isCount := 0
	for _, record := range records {
		if record.AccountType.IsBalanceSheet() {
			bsCount++
		} else if record.AccountType.IsIncomeStatement() {
			isCount++
		}
	}

	s.logger.WithFields(logger.Fields{
		"balance_sheet_indicators":    bsCount,
		"income_statement_indicators": isCount,
		"total_records":               total,
	}).Debug("Template detection")

	if bsCount > isCount && bsCount*10 >= total*6 {
		return models.TemplateBalanceSheet
	}

	if isCount > bsCount && isCount*2 >= total {
		return models.TemplateProfitLoss
	}

	return models.TemplateTrialBalance
}
