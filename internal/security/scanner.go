package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"financial-statement-service/pkg/logger"
)

// Config holds file scanning rules
type Config struct {
	// MaxFileSize is the largest accepted input file in bytes
	MaxFileSize int64 `json:"max_file_size"`
	// AllowedExtensions lists acceptable input file extensions
	AllowedExtensions []string `json:"allowed_extensions"`
}

// DefaultConfig returns the default scanning rules
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:       100 * 1024 * 1024,
		AllowedExtensions: []string{".csv", ".txt", ".pdf"},
	}
}

// ScanResult reports the outcome of a file security scan
type ScanResult struct {
	Safe          bool     `json:"safe"`
	FileSize      int64    `json:"file_size"`
	FileExtension string   `json:"file_extension"`
	FileHash      string   `json:"file_hash"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
}

// Scanner performs pre-ingestion file checks: existence, size ceiling,
// extension allow-list, empty-file detection, an integrity hash and a
// shallow content sniff for script-like payloads.
type Scanner struct {
	config *Config
	logger logger.Logger
}

// Patterns that should never appear in a ledger upload
var suspiciousPatterns = []string{
	"<script", "javascript:", "eval(", "exec(",
	"system(", "shell_exec", "passthru",
}

// NewScanner creates a new Scanner. A nil config uses the defaults; a
// nil logger discards log output.
func NewScanner(config *Config, log logger.Logger) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scanner{
		config: config,
		logger: log.WithComponent("security"),
	}
}

// Scan runs the full security check over a file. Failures are reported
// inside the result; the scan itself never raises for bad input files.
func (s *Scanner) Scan(path string) *ScanResult {
	result := &ScanResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("File does not exist: %s", path))
		return result
	}

	result.FileExtension = strings.ToLower(filepath.Ext(path))
	result.FileSize = info.Size()
	result.FileHash = s.hashFile(path)

	if result.FileSize > s.config.MaxFileSize {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"File size too large: %d bytes (max: %d)", result.FileSize, s.config.MaxFileSize))
		return result
	}

	if !s.extensionAllowed(result.FileExtension) {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"File extension not supported: %s", result.FileExtension))
		return result
	}

	if result.FileSize == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	if s.hasSuspiciousContent(path, result.FileExtension) {
		result.Warnings = append(result.Warnings, "File contains potentially suspicious patterns")
	}

	result.Safe = true
	s.logger.Infof("File security scan passed: %s", path)
	return result
}

func (s *Scanner) extensionAllowed(ext string) bool {
	for _, allowed := range s.config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// hashFile computes the SHA-256 integrity hash, empty on read failure
func (s *Scanner) hashFile(path string) string {
	file, err := os.Open(path)
	if err != nil {
		s.logger.WithError(err).Error("Hash calculation failed")
		return ""
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		s.logger.WithError(err).Error("Hash calculation failed")
		return ""
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// hasSuspiciousContent sniffs the first kilobyte of text-based files
func (s *Scanner) hasSuspiciousContent(path, ext string) bool {
	if ext != ".csv" && ext != ".txt" {
		return false
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	head := make([]byte, 1024)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return false
	}

	content := strings.ToLower(string(head[:n]))
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(content, pattern) {
			return true
		}
	}
	return false
}
