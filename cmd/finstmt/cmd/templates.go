package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"financial-statement-service/internal/models"
)

// templateInfo describes one statement template for the listing output
type templateInfo struct {
	ID          models.TemplateID
	Name        string
	Description string
	Selection   string
}

var templateCatalog = []templateInfo{
	{
		ID:          models.TemplateBalanceSheet,
		Name:        "Balance Sheet",
		Description: "Assets, liabilities, and equity at a point in time",
		Selection:   "auto-selected when at least 60% of records are balance sheet accounts",
	},
	{
		ID:          models.TemplateProfitLoss,
		Name:        "Profit & Loss Statement",
		Description: "Revenue, expenses, and margins for a period",
		Selection:   "auto-selected when at least 50% of records are income statement accounts",
	},
	{
		ID:          models.TemplateTrialBalance,
		Name:        "Trial Balance",
		Description: "All accounts with debit and credit columns and balance check",
		Selection:   "default when no other template reaches its threshold",
	},
	{
		ID:          models.TemplateCashFlow,
		Name:        "Cash Flow Statement",
		Description: "Operating, investing, and financing cash movements",
		Selection:   "never auto-selected, use --template cash_flow",
	},
}

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available statement templates",
	Long: `Templates lists the statement templates the process command can render,
with the conditions under which each one is selected automatically.`,
	Run: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) {
	fmt.Println("Available statement templates:")
	fmt.Println()
	for _, info := range templateCatalog {
		fmt.Printf("  %-14s %s\n", info.ID, info.Name)
		fmt.Printf("  %-14s %s\n", "", info.Description)
		fmt.Printf("  %-14s Selection: %s\n", "", info.Selection)
		fmt.Println()
	}
}
