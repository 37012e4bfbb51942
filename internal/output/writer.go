// Package output writes rendered financial statements to disk in the
// requested formats. Markdown is written as-is, HTML is converted from
// the Markdown rendering, and JSON carries the structured statement data
// alongside the validation result.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"financial-statement-service/internal/models"
	"financial-statement-service/internal/statement"
	apperrors "financial-statement-service/pkg/errors"
	"financial-statement-service/pkg/logger"
)

// Supported output formats
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// SupportedFormats lists the formats the writer can emit.
var SupportedFormats = []string{FormatMarkdown, FormatHTML, FormatJSON}

// Config holds output writing settings
type Config struct {
	// Dir is the directory output files are written to
	Dir string `json:"dir"`
	// Formats are the formats emitted when a request names none
	Formats []string `json:"formats"`
}

// DefaultConfig returns output settings matching the standard pipeline
func DefaultConfig() *Config {
	return &Config{
		Dir:     "output",
		Formats: []string{FormatMarkdown, FormatHTML},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Dir == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingField, "output.dir", nil, nil)
	}
	for _, format := range c.Formats {
		if !formatSupported(format) {
			return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "output.formats", format, nil)
		}
	}
	return nil
}

// Package summarizes one output emission run
type Package struct {
	Success      bool     `json:"success"`
	FilesCreated []string `json:"files_created"`
	Errors       []string `json:"errors"`
}

// statementDocument is the JSON output payload
type statementDocument struct {
	Template   models.TemplateID        `json:"template"`
	Statement  *statement.TemplateData  `json:"statement"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// Writer emits rendered statements in one or more formats.
type Writer struct {
	config   *Config
	logger   logger.Logger
	markdown goldmark.Markdown
	now      func() time.Time
}

// NewWriter creates a Writer. A nil config uses the defaults; a nil
// logger discards log output.
func NewWriter(config *Config, log logger.Logger) (*Writer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Writer{
		config: config,
		logger: log.WithComponent("output"),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		now: time.Now,
	}, nil
}

// WritePackage emits the rendered statement in each requested format and
// returns a summary. An empty format list falls back to the configured
// defaults. Per-format failures are collected; the package succeeds when
// at least one file was written and nothing failed.
func (w *Writer) WritePackage(rendered string, data *statement.TemplateData, validation *models.ValidationResult, templateID models.TemplateID, formats []string) *Package {
	pkg := &Package{
		FilesCreated: []string{},
		Errors:       []string{},
	}

	if len(formats) == 0 {
		formats = w.config.Formats
	}

	if err := os.MkdirAll(w.config.Dir, 0755); err != nil {
		pkg.Errors = append(pkg.Errors, fmt.Sprintf("Failed to create output directory: %v", err))
		return pkg
	}

	base := fmt.Sprintf("%s_%s", templateID, w.now().Format("20060102_150405"))
	for _, format := range formats {
		path, err := w.writeFormat(rendered, data, validation, templateID, base, format)
		if err != nil {
			w.logger.WithError(err).Errorf("Failed to write %s output", format)
			pkg.Errors = append(pkg.Errors, err.Error())
			continue
		}
		pkg.FilesCreated = append(pkg.FilesCreated, path)
		w.logger.WithField("path", path).Info("Output file written")
	}

	pkg.Success = len(pkg.FilesCreated) > 0 && len(pkg.Errors) == 0
	return pkg
}

func (w *Writer) writeFormat(rendered string, data *statement.TemplateData, validation *models.ValidationResult, templateID models.TemplateID, base, format string) (string, error) {
	var content []byte
	switch format {
	case FormatMarkdown:
		content = []byte(rendered)
	case FormatHTML:
		html, err := w.toHTML(rendered, data)
		if err != nil {
			return "", err
		}
		content = html
	case FormatJSON:
		doc := statementDocument{
			Template:   templateID,
			Statement:  data,
			Validation: validation,
		}
		encoded, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", apperrors.OutputError(apperrors.CodeWriteFailed, base+".json", err)
		}
		content = encoded
	default:
		return "", apperrors.OutputError(apperrors.CodeUnsupportedOutput, format, nil)
	}

	path := filepath.Join(w.config.Dir, base+"."+format)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", apperrors.OutputError(apperrors.CodeWriteFailed, path, err)
	}
	return path, nil
}

// toHTML converts the Markdown rendering into a standalone HTML document.
func (w *Writer) toHTML(rendered string, data *statement.TemplateData) ([]byte, error) {
	var body bytes.Buffer
	if err := w.markdown.Convert([]byte(rendered), &body); err != nil {
		return nil, apperrors.OutputError(apperrors.CodeWriteFailed, "html conversion", err)
	}

	title := "Financial Statement"
	if data != nil && data.CompanyName != "" {
		title = data.CompanyName
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", title)
	doc.WriteString("<style>\nbody { font-family: sans-serif; margin: 2em; }\ntable { border-collapse: collapse; }\nth, td { border: 1px solid #ccc; padding: 4px 12px; text-align: left; }\n</style>\n</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

func formatSupported(format string) bool {
	for _, supported := range SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}
