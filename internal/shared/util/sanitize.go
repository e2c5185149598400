package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

// MaxFileNameLength bounds stored file names, extension included.
const MaxFileNameLength = 200

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, drops control characters and
// rejects traversal patterns. Long names are cut before the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", errInvalidFileName
	}
	if len(s) > MaxFileNameLength {
		ext := path.Ext(s)
		if len(ext) >= MaxFileNameLength {
			ext = ""
		}
		s = strings.ToValidUTF8(s[:MaxFileNameLength-len(ext)], "") + ext
	}
	return s, nil
}
