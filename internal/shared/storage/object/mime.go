package object

import (
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv"
)

// DetectMimeType sniffs head and refines the generic results for spreadsheet
// uploads: an xlsx workbook sniffs as a zip archive and a csv file as plain text.
func DetectMimeType(head []byte, fileName string) string {
	sniffed := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case strings.HasPrefix(sniffed, "application/zip") && ext == ".xlsx":
		return MimeXLSX
	case strings.HasPrefix(sniffed, "text/plain") && ext == ".csv":
		return MimeCSV
	default:
		return sniffed
	}
}
