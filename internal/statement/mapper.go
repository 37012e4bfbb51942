package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financial-statement-service/internal/models"
	"financial-statement-service/pkg/logger"
)

// Buckets accumulates record amounts into named statement line items.
// Every field defaults to zero; buckets absent from the input simply
// stay zero in the derived totals.
type Buckets struct {
	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accounts_receivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	PrepaidExpenses    decimal.Decimal `json:"prepaid_expenses"`
	PPE                decimal.Decimal `json:"ppe"`
	Investments        decimal.Decimal `json:"investments"`
	IntangibleAssets   decimal.Decimal `json:"intangible_assets"`
	AccountsPayable    decimal.Decimal `json:"accounts_payable"`
	AccruedExpenses    decimal.Decimal `json:"accrued_expenses"`
	ShortTermDebt      decimal.Decimal `json:"short_term_debt"`
	LongTermDebt       decimal.Decimal `json:"long_term_debt"`
	DeferredTax        decimal.Decimal `json:"deferred_tax"`
	ShareCapital       decimal.Decimal `json:"share_capital"`
	RetainedEarnings   decimal.Decimal `json:"retained_earnings"`
	SalesRevenue       decimal.Decimal `json:"sales_revenue"`
	ServiceRevenue     decimal.Decimal `json:"service_revenue"`
	OtherIncome        decimal.Decimal `json:"other_income"`
	COGS               decimal.Decimal `json:"cogs"`
	Salaries           decimal.Decimal `json:"salaries"`
	Rent               decimal.Decimal `json:"rent"`
	Utilities          decimal.Decimal `json:"utilities"`
	Insurance          decimal.Decimal `json:"insurance"`
	Depreciation       decimal.Decimal `json:"depreciation"`
	Marketing          decimal.Decimal `json:"marketing"`
	ProfessionalFees   decimal.Decimal `json:"professional_fees"`
	OfficeExpenses     decimal.Decimal `json:"office_expenses"`
	OtherExpenses      decimal.Decimal `json:"other_expenses"`
	InterestIncome     decimal.Decimal `json:"interest_income"`
	InterestExpense    decimal.Decimal `json:"interest_expense"`
}

// AccountLine is the flattened per-record view for tabular templates
type AccountLine struct {
	Name    string             `json:"name"`
	Type    models.AccountType `json:"type"`
	Debit   decimal.Decimal    `json:"debit"`
	Credit  decimal.Decimal    `json:"credit"`
	Balance decimal.Decimal    `json:"balance"`
}

// BalanceSheetTotals holds the balance-sheet derived totals
type BalanceSheetTotals struct {
	TotalCurrentAssets         decimal.Decimal `json:"total_current_assets"`
	TotalNonCurrentAssets      decimal.Decimal `json:"total_non_current_assets"`
	TotalAssets                decimal.Decimal `json:"total_assets"`
	TotalCurrentLiabilities    decimal.Decimal `json:"total_current_liabilities"`
	TotalNonCurrentLiabilities decimal.Decimal `json:"total_non_current_liabilities"`
	TotalEquity                decimal.Decimal `json:"total_equity"`
	TotalLiabEquity            decimal.Decimal `json:"total_liab_equity"`
}

// IncomeStatementTotals holds the profit-and-loss derived totals.
// Margins are percentages and report zero when revenue is zero.
type IncomeStatementTotals struct {
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	GrossProfit            decimal.Decimal `json:"gross_profit"`
	TotalOperatingExpenses decimal.Decimal `json:"total_operating_expenses"`
	OperatingIncome        decimal.Decimal `json:"operating_income"`
	NetOtherIncome         decimal.Decimal `json:"net_other_income"`
	NetIncome              decimal.Decimal `json:"net_income"`
	GrossMargin            decimal.Decimal `json:"gross_margin"`
	OperatingMargin        decimal.Decimal `json:"operating_margin"`
	NetMargin              decimal.Decimal `json:"net_margin"`
}

// TemplateData is the variable payload fed to the rendering stage
type TemplateData struct {
	CompanyName        string                     `json:"company_name"`
	Date               string                     `json:"date"`
	GenerationDate     string                     `json:"generation_date"`
	TotalAccounts      int                        `json:"total_accounts"`
	Accounts           []AccountLine              `json:"accounts"`
	TotalDebits        decimal.Decimal            `json:"total_debits"`
	TotalCredits       decimal.Decimal            `json:"total_credits"`
	BalanceDifference  decimal.Decimal            `json:"balance_difference"`
	BalanceCheck       bool                       `json:"balance_check"`
	AccountTypeSummary map[models.AccountType]int `json:"account_type_summary"`
	Buckets            Buckets                    `json:"buckets"`
	BalanceSheet       *BalanceSheetTotals        `json:"balance_sheet,omitempty"`
	IncomeStatement    *IncomeStatementTotals     `json:"income_statement,omitempty"`
	CashFlow           *CashFlowTotals            `json:"cash_flow,omitempty"`
}

// CashFlowTotals holds the cash-flow statement line items. The mapper
// has no period-over-period data to derive movements from, so every
// field renders as zero unless populated by a caller with richer data.
type CashFlowTotals struct {
	NetIncome         decimal.Decimal `json:"net_income"`
	Depreciation      decimal.Decimal `json:"depreciation"`
	ARChange          decimal.Decimal `json:"ar_change"`
	InventoryChange   decimal.Decimal `json:"inventory_change"`
	APChange          decimal.Decimal `json:"ap_change"`
	OperatingCashFlow decimal.Decimal `json:"operating_cash_flow"`
	EquipmentPurchase decimal.Decimal `json:"equipment_purchase"`
	InvestmentSale    decimal.Decimal `json:"investment_sale"`
	InvestingCashFlow decimal.Decimal `json:"investing_cash_flow"`
	DebtProceeds      decimal.Decimal `json:"debt_proceeds"`
	DebtRepayment     decimal.Decimal `json:"debt_repayment"`
	Dividends         decimal.Decimal `json:"dividends"`
	FinancingCashFlow decimal.Decimal `json:"financing_cash_flow"`
	NetCashChange     decimal.Decimal `json:"net_cash_change"`
	BeginningCash     decimal.Decimal `json:"beginning_cash"`
	EndingCash        decimal.Decimal `json:"ending_cash"`
}

// MapperConfig holds statement mapping settings
type MapperConfig struct {
	// CompanyName appears in rendered statement headers
	CompanyName string `json:"company_name"`
	// BalanceTolerance bounds the acceptable debit/credit difference
	// for the balance check line
	BalanceTolerance decimal.Decimal `json:"balance_tolerance"`
}

// DefaultMapperConfig returns the default mapping settings
func DefaultMapperConfig() *MapperConfig {
	return &MapperConfig{
		CompanyName:      "Your Company Name",
		BalanceTolerance: decimal.NewFromFloat(0.01),
	}
}

// Mapper aggregates financial records into template variables
type Mapper struct {
	config *MapperConfig
	logger logger.Logger
	now    func() time.Time
}

// NewMapper creates a new Mapper. A nil config uses the defaults; a
// nil logger discards log output.
func NewMapper(config *MapperConfig, log logger.Logger) *Mapper {
	if config == nil {
		config = DefaultMapperConfig()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Mapper{
		config: config,
		logger: log.WithComponent("mapper"),
		now:    time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// Build aggregates records into the variable payload for the given
// template. Records route into at most one bucket each, by keyword
// priority; unmatched records still count toward the totals.
func (m *Mapper) Build(records []*models.FinancialRecord, templateID models.TemplateID) *TemplateData {
	m.logger.Infof("Mapping %d records to template %s", len(records), templateID)

	now := m.now()
	data := &TemplateData{
		CompanyName:        m.config.CompanyName,
		Date:               now.Format("January 2, 2006"),
		GenerationDate:     now.Format("2006-01-02 15:04:05"),
		TotalAccounts:      len(records),
		Accounts:           make([]AccountLine, 0, len(records)),
		TotalDebits:        decimal.Zero,
		TotalCredits:       decimal.Zero,
		AccountTypeSummary: make(map[models.AccountType]int),
	}

	for _, record := range records {
		data.TotalDebits = data.TotalDebits.Add(record.Debit)
		data.TotalCredits = data.TotalCredits.Add(record.Credit)
		data.AccountTypeSummary[record.AccountType]++

		data.Accounts = append(data.Accounts, AccountLine{
			Name:    record.AccountName,
			Type:    record.AccountType,
			Debit:   record.Debit,
			Credit:  record.Credit,
			Balance: record.Balance,
		})

		m.accumulate(&data.Buckets, record)
	}

	data.BalanceDifference = data.TotalDebits.Sub(data.TotalCredits).Abs()
	data.BalanceCheck = data.BalanceDifference.LessThanOrEqual(m.config.BalanceTolerance)

	switch templateID {
	case models.TemplateBalanceSheet:
		data.BalanceSheet = deriveBalanceSheetTotals(&data.Buckets)
	case models.TemplateProfitLoss:
		data.IncomeStatement = deriveIncomeStatementTotals(&data.Buckets)
	case models.TemplateCashFlow:
		data.CashFlow = &CashFlowTotals{}
	}

	return data
}

// accumulate routes one record into its statement bucket. Evaluation
// order is a fixed priority chain: the first matching branch wins and
// later keywords are not considered.
func (m *Mapper) accumulate(buckets *Buckets, record *models.FinancialRecord) {
	name := strings.ToLower(record.AccountName)

	switch {
	case strings.Contains(name, "cash") || strings.Contains(name, "bank"):
		buckets.Cash = buckets.Cash.Add(record.DebitOrBalance())
	case strings.Contains(name, "receivable"):
		buckets.AccountsReceivable = buckets.AccountsReceivable.Add(record.DebitOrBalance())
	case strings.Contains(name, "inventory"):
		buckets.Inventory = buckets.Inventory.Add(record.DebitOrBalance())
	case strings.Contains(name, "payable"):
		buckets.AccountsPayable = buckets.AccountsPayable.Add(record.CreditOrAbsBalance())
	case strings.Contains(name, "revenue") || strings.Contains(name, "sales"):
		if strings.Contains(name, "service") {
			buckets.ServiceRevenue = buckets.ServiceRevenue.Add(record.CreditOrAbsBalance())
		} else {
			buckets.SalesRevenue = buckets.SalesRevenue.Add(record.CreditOrAbsBalance())
		}
	case strings.Contains(name, "expense") || strings.Contains(name, "cost"):
		amount := record.DebitOrBalance()
		switch {
		case strings.Contains(name, "salary") || strings.Contains(name, "wage"):
			buckets.Salaries = buckets.Salaries.Add(amount)
		case strings.Contains(name, "rent"):
			buckets.Rent = buckets.Rent.Add(amount)
		case strings.Contains(name, "utility") || strings.Contains(name, "utilities"):
			buckets.Utilities = buckets.Utilities.Add(amount)
		case strings.Contains(name, "cogs") || strings.Contains(name, "cost of goods"):
			buckets.COGS = buckets.COGS.Add(amount)
		default:
			buckets.OtherExpenses = buckets.OtherExpenses.Add(amount)
		}
	}
}

func deriveBalanceSheetTotals(b *Buckets) *BalanceSheetTotals {
	totals := &BalanceSheetTotals{}

	totals.TotalCurrentAssets = b.Cash.
		Add(b.AccountsReceivable).
		Add(b.Inventory).
		Add(b.PrepaidExpenses)
	totals.TotalNonCurrentAssets = b.PPE.
		Add(b.Investments).
		Add(b.IntangibleAssets)
	totals.TotalAssets = totals.TotalCurrentAssets.Add(totals.TotalNonCurrentAssets)

	totals.TotalCurrentLiabilities = b.AccountsPayable.
		Add(b.AccruedExpenses).
		Add(b.ShortTermDebt)
	totals.TotalNonCurrentLiabilities = b.LongTermDebt.Add(b.DeferredTax)
	totals.TotalEquity = b.ShareCapital.Add(b.RetainedEarnings)
	totals.TotalLiabEquity = totals.TotalCurrentLiabilities.
		Add(totals.TotalNonCurrentLiabilities).
		Add(totals.TotalEquity)

	return totals
}

func deriveIncomeStatementTotals(b *Buckets) *IncomeStatementTotals {
	totals := &IncomeStatementTotals{}

	totals.TotalRevenue = b.SalesRevenue.
		Add(b.ServiceRevenue).
		Add(b.OtherIncome)
	totals.GrossProfit = totals.TotalRevenue.Sub(b.COGS)

	totals.TotalOperatingExpenses = b.Salaries.
		Add(b.Rent).
		Add(b.Utilities).
		Add(b.Insurance).
		Add(b.Depreciation).
		Add(b.Marketing).
		Add(b.ProfessionalFees).
		Add(b.OfficeExpenses).
		Add(b.OtherExpenses)

	totals.OperatingIncome = totals.GrossProfit.Sub(totals.TotalOperatingExpenses)
	totals.NetOtherIncome = b.InterestIncome.Sub(b.InterestExpense)
	totals.NetIncome = totals.OperatingIncome.Add(totals.NetOtherIncome)

	// Margins report zero when there is no revenue
	totals.GrossMargin = decimal.Zero
	totals.OperatingMargin = decimal.Zero
	totals.NetMargin = decimal.Zero
	if totals.TotalRevenue.IsPositive() {
		totals.GrossMargin = totals.GrossProfit.Div(totals.TotalRevenue).Mul(hundred)
		totals.OperatingMargin = totals.OperatingIncome.Div(totals.TotalRevenue).Mul(hundred)
		totals.NetMargin = totals.NetIncome.Div(totals.TotalRevenue).Mul(hundred)
	}

	return totals
}
