package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateProcessFlags(t *testing.T) {
	tmpDir := t.TempDir()
	ledgerFile := filepath.Join(tmpDir, "ledger.csv")
	if err := os.WriteFile(ledgerFile, []byte("Account,Debit,Credit\nCash,100,0\n"), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		args          []string
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("formats", []string{"md", "html"})
			},
			args:        []string{ledgerFile},
			expectError: false,
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("formats", []string{"docx"})
			},
			args:          []string{ledgerFile},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "invalid template override",
			setupFlags: func() {
				viper.Set("formats", []string{"md"})
				viper.Set("template", "general_ledger")
			},
			args:          []string{ledgerFile},
			expectError:   true,
			errorContains: "invalid template identifier",
		},
		{
			name: "negative tolerance",
			setupFlags: func() {
				viper.Set("formats", []string{"md"})
				viper.Set("tolerance", -0.5)
			},
			args:          []string{ledgerFile},
			expectError:   true,
			errorContains: "tolerance cannot be negative",
		},
		{
			name: "missing input file",
			setupFlags: func() {
				viper.Set("formats", []string{"md"})
			},
			args:          []string{filepath.Join(tmpDir, "missing.csv")},
			expectError:   true,
			errorContains: "does not exist",
		},
		{
			name: "directory as input",
			setupFlags: func() {
				viper.Set("formats", []string{"md"})
			},
			args:          []string{tmpDir},
			expectError:   true,
			errorContains: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateProcessFlags(cmd, tt.args)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestProcessCommandHelp(t *testing.T) {
	cmd := processCmd

	for _, name := range []string{"user", "formats", "template", "output-dir", "audit-dir", "no-audit"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("%s flag not found", name)
		}
	}

	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	cmd.Help()

	helpText := helpOutput.String()

	expectedSections := []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--formats",
		"--template",
		"--output-dir",
	}

	for _, section := range expectedSections {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestTemplateCatalogMatchesModels(t *testing.T) {
	seen := map[string]bool{}
	for _, info := range templateCatalog {
		if !info.ID.IsValid() {
			t.Errorf("catalog entry %s is not a valid template id", info.ID)
		}
		seen[string(info.ID)] = true
	}
	for _, id := range []string{"balance_sheet", "profit_loss", "trial_balance", "cash_flow"} {
		if !seen[id] {
			t.Errorf("catalog is missing template %s", id)
		}
	}
}
