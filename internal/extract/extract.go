// Package extract turns uploaded resume files into plain text. Only
// plain-text formats are built in; richer formats (PDF, DOCX) plug in
// behind the Extractor interface.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/talentsift/resumatch/internal/domain"
)

// Extractor converts a raw uploaded file into plain text.
type Extractor interface {
	Extract(filename string, raw []byte) (string, error)
}

// plainExtensions are the file extensions the plain-text extractor accepts.
var plainExtensions = map[string]struct{}{
	".txt":      {},
	".text":     {},
	".md":       {},
	".markdown": {},
}

// Plain extracts text from plain-text and markdown files. Invalid
// UTF-8 sequences are dropped rather than rejected.
type Plain struct{}

// NewPlain creates a plain-text extractor.
func NewPlain() *Plain {
	return &Plain{}
}

// Extract returns the decoded file content. Unknown extensions reject
// with domain.ErrInvalidArgument.
func (*Plain) Extract(filename string, raw []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := plainExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: unsupported file type %q (want .txt or .md)", domain.ErrInvalidArgument, ext)
	}
	return sanitize(string(raw)), nil
}

// sanitize drops invalid UTF-8, normalizes line endings and strips NUL
// bytes that some exporters emit.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return s
}
