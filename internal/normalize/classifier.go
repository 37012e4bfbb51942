package normalize

import (
	"strings"

	"financial-statement-service/internal/models"
)

// Category pairs a category key with the account type it implies and
// the keywords that select it.
type Category struct {
	Name     string
	Type     models.AccountType
	Keywords []string
}

// DefaultCategories returns the built-in keyword-category table.
// Iteration order is significant: an account name matching keywords
// from two categories always resolves to the earlier one. "Loan
// Receivable" matches both receivable and loan and resolves to assets.
func DefaultCategories() []Category {
	return []Category{
		{Name: "assets", Type: models.AccountTypeAsset,
			Keywords: []string{"cash", "bank", "receivable", "inventory", "equipment", "building", "assets"}},
		{Name: "liabilities", Type: models.AccountTypeLiability,
			Keywords: []string{"payable", "debt", "loan", "liability", "accrued"}},
		{Name: "equity", Type: models.AccountTypeEquity,
			Keywords: []string{"equity", "capital", "retained", "earnings"}},
		{Name: "revenue", Type: models.AccountTypeRevenue,
			Keywords: []string{"revenue", "income", "sales", "turnover"}},
		{Name: "expenses", Type: models.AccountTypeExpense,
			Keywords: []string{"expense", "cost", "salary", "rent", "utilities"}},
	}
}

// Classifier maps account names to (account type, category) pairs via
// case-insensitive substring matching against an ordered category table.
type Classifier struct {
	categories []Category
}

// NewClassifier creates a classifier over the given category table.
// A nil table uses the defaults.
func NewClassifier(categories []Category) *Classifier {
	if categories == nil {
		categories = DefaultCategories()
	}
	return &Classifier{categories: categories}
}

// Classify derives the account type and category from an account name.
// The empty name yields (Unknown, "Other"); an unmatched name yields
// (Unknown, "other").
func (c *Classifier) Classify(accountName string) (models.AccountType, string) {
	if accountName == "" {
		return models.AccountTypeUnknown, "Other"
	}

	nameLower := strings.ToLower(strings.TrimSpace(accountName))

	for _, category := range c.categories {
		for _, keyword := range category.Keywords {
			if strings.Contains(nameLower, keyword) {
				return category.Type, category.Name
			}
		}
	}

	return models.AccountTypeUnknown, "other"
}
