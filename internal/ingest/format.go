package ingest

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"insight-dashboard/internal/errors"
)

type Format string

const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatExcel   Format = "excel"
)

const defaultFilename = "upload.csv"

// DetectFormat inspects every extension of name, so "sales.csv.gz" is a
// gzip-compressed CSV.
func DetectFormat(name string) (Format, string) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	exts := strings.Split(strings.ToLower(base), ".")[1:]

	var (
		format      Format
		compression string
	)

	for _, ext := range exts {
		switch ext {
		case "csv":
			format = FormatCSV
		case "xlsx", "xls":
			format = FormatExcel
		case "gz", "gzip":
			compression = "gzip"
		case "bz2", "bzip2":
			compression = "bzip2"
		}
	}

	return format, compression
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\s\-.]`)

// SanitizeFilename strips directory components and anything outside
// word characters, spaces, dashes and dots, then caps the length while
// keeping the extension.
func SanitizeFilename(name string, maxLength int) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return defaultFilename
	}

	if maxLength > 0 && len(name) > maxLength {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		keep := max(maxLength-len(ext), 0)
		name = stem[:min(keep, len(stem))] + ext
		if len(name) > maxLength {
			name = name[:maxLength]
		}
	}

	return name
}

// CheckExtension rejects names whose final extension is not in allowed.
func CheckExtension(name string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || !slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, ext) }) {
		return errors.UnsupportedFormat("File type not allowed. Please upload CSV or Excel files only.")
	}
	return nil
}
