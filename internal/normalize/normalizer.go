package normalize

import (
	"strings"

	"financial-statement-service/internal/models"
	"financial-statement-service/pkg/logger"
)

// Normalizer transforms raw tabular datasets into canonical financial
// records. It combines the column mapper, amount parser and account
// classifier; the transformation is a pure function of its input.
type Normalizer struct {
	classifier *Classifier
	logger     logger.Logger
}

// NewNormalizer creates a new Normalizer. A nil classifier uses the
// default category table; a nil logger discards log output.
func NewNormalizer(classifier *Classifier, log logger.Logger) *Normalizer {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Normalizer{
		classifier: classifier,
		logger:     log.WithComponent("normalizer"),
	}
}

// Normalize converts a raw table into one FinancialRecord per input
// row, order-preserving. A single bad row never fails the run:
// unparseable amounts degrade to zero and the row is still emitted.
// An empty table yields an empty record list.
func (n *Normalizer) Normalize(table *models.RawTable) []*models.FinancialRecord {
	if table.IsEmpty() {
		n.logger.Warn("Input table is empty, no records to normalize")
		return []*models.FinancialRecord{}
	}

	mapping := MapColumns(table.Headers)
	index := ColumnIndex(table.Headers, mapping)
	n.logger.WithFields(logger.Fields{
		"headers": len(table.Headers),
		"mapped":  len(mapping),
	}).Debug("Column mapping applied")

	records := make([]*models.FinancialRecord, 0, table.RowCount())

	for row := 0; row < table.RowCount(); row++ {
		record := models.NewFinancialRecord("")

		// Account name from the mapped column, falling back to literal
		// account/name headers the mapper left unclaimed
		for _, source := range []string{index[ColumnAccountName], "account", "name"} {
			if source == "" {
				continue
			}
			if value, ok := table.Cell(row, source); ok && strings.TrimSpace(value) != "" {
				record.AccountName = strings.TrimSpace(value)
				break
			}
		}

		if header, ok := index[ColumnDescription]; ok {
			if value, found := table.Cell(row, header); found {
				record.Description = strings.TrimSpace(value)
			}
		}

		// Dedicated debit/credit columns take priority
		if header, ok := index[ColumnDebit]; ok {
			value, _ := table.Cell(row, header)
			record.Debit = ParseAmount(value)
		}
		if header, ok := index[ColumnCredit]; ok {
			value, _ := table.Cell(row, header)
			record.Credit = ParseAmount(value)
		}
		if header, ok := index[ColumnBalance]; ok {
			value, _ := table.Cell(row, header)
			record.Balance = ParseAmount(value)
		}

		// Single amount column: infer the side from an explicit type
		// column or from the sign. A non-negative amount defaults to
		// the debit side even for revenue entries; this ambiguity is
		// deliberate and documented behavior.
		if record.Debit.IsZero() && record.Credit.IsZero() {
			if header, ok := index[ColumnAmount]; ok {
				value, _ := table.Cell(row, header)
				amount := ParseAmount(value)
				original := amount
				record.OriginalAmount = &original

				typeValue := ""
				if typeHeader, hasType := index[ColumnType]; hasType {
					typeValue, _ = table.Cell(row, typeHeader)
					typeValue = strings.TrimSpace(typeValue)
				}

				if typeValue != "" {
					typeLower := strings.ToLower(typeValue)
					if strings.Contains(typeLower, "credit") || strings.Contains(typeLower, "cr") {
						record.Credit = amount.Abs()
					} else {
						record.Debit = amount.Abs()
					}
				} else if amount.Sign() >= 0 {
					record.Debit = amount
				} else {
					record.Credit = amount.Abs()
				}
			}
		}

		// Balance-only rows convert based on sign
		if record.Debit.IsZero() && record.Credit.IsZero() && !record.Balance.IsZero() {
			if record.Balance.Sign() >= 0 {
				record.Debit = record.Balance
			} else {
				record.Credit = record.Balance.Abs()
			}
		}

		record.AccountType, record.Category = n.classifier.Classify(record.AccountName)

		records = append(records, record)
	}

	n.logger.Infof("Normalized %d financial records", len(records))
	return records
}
