package statement

import (
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"financial-statement-service/internal/models"
	apperrors "financial-statement-service/pkg/errors"
	"financial-statement-service/pkg/logger"
)

// Renderer turns template data into Markdown statement documents
type Renderer struct {
	templates map[models.TemplateID]*template.Template
	currency  *money.Currency
	logger    logger.Logger
}

// NewRenderer creates a renderer formatting amounts in the given ISO
// currency code. A nil logger discards log output.
func NewRenderer(currencyCode string, log logger.Logger) (*Renderer, error) {
	if currencyCode == "" {
		currencyCode = money.USD
	}
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "currency", currencyCode, nil)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	r := &Renderer{
		templates: make(map[models.TemplateID]*template.Template),
		currency:  currency,
		logger:    log.WithComponent("renderer"),
	}

	funcs := template.FuncMap{
		"money": r.formatMoney,
		"pct":   formatPercent,
	}

	sources := map[models.TemplateID]string{
		models.TemplateBalanceSheet: balanceSheetTemplate,
		models.TemplateProfitLoss:   profitLossTemplate,
		models.TemplateTrialBalance: trialBalanceTemplate,
		models.TemplateCashFlow:     cashFlowTemplate,
	}
	for id, source := range sources {
		parsed, err := template.New(id.String()).Funcs(funcs).Parse(source)
		if err != nil {
			return nil, apperrors.StatementError(apperrors.CodeRenderFailed, id.String(), err)
		}
		r.templates[id] = parsed
	}

	return r, nil
}

// Render produces the Markdown document for the given template
func (r *Renderer) Render(templateID models.TemplateID, data *TemplateData) (string, error) {
	tmpl, ok := r.templates[templateID]
	if !ok {
		return "", apperrors.StatementError(apperrors.CodeUnknownTemplate, templateID.String(), nil)
	}

	// Guard against data built for a different template
	switch templateID {
	case models.TemplateBalanceSheet:
		if data.BalanceSheet == nil {
			data.BalanceSheet = deriveBalanceSheetTotals(&data.Buckets)
		}
	case models.TemplateProfitLoss:
		if data.IncomeStatement == nil {
			data.IncomeStatement = deriveIncomeStatementTotals(&data.Buckets)
		}
	case models.TemplateCashFlow:
		if data.CashFlow == nil {
			data.CashFlow = &CashFlowTotals{}
		}
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", apperrors.StatementError(apperrors.CodeRenderFailed, templateID.String(), err)
	}

	r.logger.WithFields(logger.Fields{
		"template": templateID.String(),
		"accounts": data.TotalAccounts,
	}).Info("Statement rendered")

	return builder.String(), nil
}

// formatMoney renders a decimal amount in the configured currency,
// shifting into minor units for the currency formatter.
func (r *Renderer) formatMoney(d decimal.Decimal) string {
	fraction := int32(r.currency.Fraction)
	minor := d.Round(fraction).Shift(fraction).IntPart()
	return money.New(minor, r.currency.Code).Display()
}

func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

const balanceSheetTemplate = `# Balance Sheet
**{{.CompanyName}}**
**As of {{.Date}}**

---

## ASSETS

### Current Assets
| Account | Amount |
|---------|--------|
| Cash and Cash Equivalents | {{money .Buckets.Cash}} |
| Accounts Receivable | {{money .Buckets.AccountsReceivable}} |
| Inventory | {{money .Buckets.Inventory}} |
| Prepaid Expenses | {{money .Buckets.PrepaidExpenses}} |
| **Total Current Assets** | **{{money .BalanceSheet.TotalCurrentAssets}}** |

### Non-Current Assets
| Account | Amount |
|---------|--------|
| Property, Plant & Equipment | {{money .Buckets.PPE}} |
| Investments | {{money .Buckets.Investments}} |
| Intangible Assets | {{money .Buckets.IntangibleAssets}} |
| **Total Non-Current Assets** | **{{money .BalanceSheet.TotalNonCurrentAssets}}** |

### **TOTAL ASSETS: {{money .BalanceSheet.TotalAssets}}**

---

## LIABILITIES AND EQUITY

### Current Liabilities
| Account | Amount |
|---------|--------|
| Accounts Payable | {{money .Buckets.AccountsPayable}} |
| Accrued Expenses | {{money .Buckets.AccruedExpenses}} |
| Short-term Debt | {{money .Buckets.ShortTermDebt}} |
| **Total Current Liabilities** | **{{money .BalanceSheet.TotalCurrentLiabilities}}** |

### Non-Current Liabilities
| Account | Amount |
|---------|--------|
| Long-term Debt | {{money .Buckets.LongTermDebt}} |
| Deferred Tax Liabilities | {{money .Buckets.DeferredTax}} |
| **Total Non-Current Liabilities** | **{{money .BalanceSheet.TotalNonCurrentLiabilities}}** |

### Equity
| Account | Amount |
|---------|--------|
| Share Capital | {{money .Buckets.ShareCapital}} |
| Retained Earnings | {{money .Buckets.RetainedEarnings}} |
| **Total Equity** | **{{money .BalanceSheet.TotalEquity}}** |

### **TOTAL LIABILITIES AND EQUITY: {{money .BalanceSheet.TotalLiabEquity}}**

---

**Balance Check:** {{if .BalanceCheck}}Balanced{{else}}Not Balanced (Difference: {{money .BalanceDifference}}){{end}}

**Report Generated:** {{.GenerationDate}}
`

const profitLossTemplate = `# Profit & Loss Statement
**{{.CompanyName}}**
**For the period ending {{.Date}}**

---

## REVENUE
| Account | Amount |
|---------|--------|
| Sales Revenue | {{money .Buckets.SalesRevenue}} |
| Service Revenue | {{money .Buckets.ServiceRevenue}} |
| Other Income | {{money .Buckets.OtherIncome}} |
| **Total Revenue** | **{{money .IncomeStatement.TotalRevenue}}** |

---

## EXPENSES

### Cost of Sales
| Account | Amount |
|---------|--------|
| Cost of Goods Sold | {{money .Buckets.COGS}} |
| **Gross Profit** | **{{money .IncomeStatement.GrossProfit}}** |

### Operating Expenses
| Account | Amount |
|---------|--------|
| Salaries and Wages | {{money .Buckets.Salaries}} |
| Rent Expense | {{money .Buckets.Rent}} |
| Utilities | {{money .Buckets.Utilities}} |
| Insurance | {{money .Buckets.Insurance}} |
| Depreciation | {{money .Buckets.Depreciation}} |
| Marketing & Advertising | {{money .Buckets.Marketing}} |
| Professional Fees | {{money .Buckets.ProfessionalFees}} |
| Office Expenses | {{money .Buckets.OfficeExpenses}} |
| Other Expenses | {{money .Buckets.OtherExpenses}} |
| **Total Operating Expenses** | **{{money .IncomeStatement.TotalOperatingExpenses}}** |

### **Operating Income: {{money .IncomeStatement.OperatingIncome}}**

### Other Income/Expenses
| Account | Amount |
|---------|--------|
| Interest Income | {{money .Buckets.InterestIncome}} |
| Interest Expense | {{money .Buckets.InterestExpense}} |
| **Net Other Income** | **{{money .IncomeStatement.NetOtherIncome}}** |

---

### **NET INCOME: {{money .IncomeStatement.NetIncome}}**

---

**Key Ratios:**
- Gross Profit Margin: {{pct .IncomeStatement.GrossMargin}}
- Operating Margin: {{pct .IncomeStatement.OperatingMargin}}
- Net Profit Margin: {{pct .IncomeStatement.NetMargin}}

**Report Generated:** {{.GenerationDate}}
`

const trialBalanceTemplate = `# Trial Balance
**{{.CompanyName}}**
**As of {{.Date}}**

---

| Account Name | Account Type | Debit | Credit |
|--------------|--------------|-------|--------|
{{range .Accounts -}}
| {{.Name}} | {{.Type}} | {{money .Debit}} | {{money .Credit}} |
{{end}}
---

| **TOTALS** | | **{{money .TotalDebits}}** | **{{money .TotalCredits}}** |

---

**Balance Verification:**
{{if .BalanceCheck -}}
**Trial Balance is BALANCED**
{{else -}}
**Trial Balance is NOT BALANCED**
- **Difference:** {{money .BalanceDifference}}
{{end}}
**Summary Statistics:**
- **Total Accounts:** {{.TotalAccounts}}
- **Total Debits:** {{money .TotalDebits}}
- **Total Credits:** {{money .TotalCredits}}

**Account Breakdown by Type:**
{{range $type, $count := .AccountTypeSummary -}}
- **{{$type}}:** {{$count}} accounts
{{end}}
**Report Generated:** {{.GenerationDate}}
`

const cashFlowTemplate = `# Cash Flow Statement
**{{.CompanyName}}**
**For the period ending {{.Date}}**

---

## CASH FLOWS FROM OPERATING ACTIVITIES
| Item | Amount |
|------|--------|
| Net Income | {{money .CashFlow.NetIncome}} |
| Depreciation | {{money .CashFlow.Depreciation}} |
| Accounts Receivable Change | {{money .CashFlow.ARChange}} |
| Inventory Change | {{money .CashFlow.InventoryChange}} |
| Accounts Payable Change | {{money .CashFlow.APChange}} |
| **Net Cash from Operating Activities** | **{{money .CashFlow.OperatingCashFlow}}** |

---

## CASH FLOWS FROM INVESTING ACTIVITIES
| Item | Amount |
|------|--------|
| Purchase of Equipment | {{money .CashFlow.EquipmentPurchase}} |
| Sale of Investments | {{money .CashFlow.InvestmentSale}} |
| **Net Cash from Investing Activities** | **{{money .CashFlow.InvestingCashFlow}}** |

---

## CASH FLOWS FROM FINANCING ACTIVITIES
| Item | Amount |
|------|--------|
| Proceeds from Debt | {{money .CashFlow.DebtProceeds}} |
| Repayment of Debt | {{money .CashFlow.DebtRepayment}} |
| Dividends Paid | {{money .CashFlow.Dividends}} |
| **Net Cash from Financing Activities** | **{{money .CashFlow.FinancingCashFlow}}** |

---

## NET CHANGE IN CASH
| Item | Amount |
|------|--------|
| Net Change in Cash | {{money .CashFlow.NetCashChange}} |
| Cash at Beginning of Period | {{money .CashFlow.BeginningCash}} |
| **Cash at End of Period** | **{{money .CashFlow.EndingCash}}** |

**Report Generated:** {{.GenerationDate}}
`
