package resume

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/talentsift/resumatch/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	// MaxContentSize is the maximum extracted text size in bytes.
	MaxContentSize = 204800 // 200KB
	// MaxFilenameLength is the maximum stored filename length.
	MaxFilenameLength = 255
	// PreviewLength is the number of runes returned by Preview.
	PreviewLength = 300
)

// Resume is the stored candidate resume (immutable value object).
// The embedding vector is computed once at ingestion and never updated.
type Resume struct {
	id        string
	filename  string
	sourceURL string
	content   string
	vector    []float32
	createdAt time.Time
}

// New validates and creates a Resume without a vector.
// ID: ^[a-zA-Z0-9_-]+$, 1-64 chars. Content may be empty (a resume whose
// text extraction produced nothing is stored with the zero vector).
func New(id, filename, sourceURL, content string, createdAt time.Time) (Resume, error) {
	if id == "" {
		return Resume{}, fmt.Errorf("%w: resume ID is required", domain.ErrInvalidArgument)
	}
	if len(id) > 64 {
		return Resume{}, fmt.Errorf("%w: resume ID too long (max 64)", domain.ErrInvalidArgument)
	}
	if !idRegex.MatchString(id) {
		return Resume{}, fmt.Errorf("%w: resume ID must be alphanumeric with underscores and hyphens", domain.ErrInvalidArgument)
	}
	if filename == "" {
		return Resume{}, fmt.Errorf("%w: filename is required", domain.ErrInvalidArgument)
	}
	if len(filename) > MaxFilenameLength {
		return Resume{}, fmt.Errorf("%w: filename too long (max %d)", domain.ErrInvalidArgument, MaxFilenameLength)
	}
	if len(content) > MaxContentSize {
		return Resume{}, fmt.Errorf("%w: content too large (max %d bytes)", domain.ErrInvalidArgument, MaxContentSize)
	}

	return Resume{
		id:        id,
		filename:  filename,
		sourceURL: sourceURL,
		content:   content,
		createdAt: createdAt,
	}, nil
}

// Reconstruct creates a Resume without validation (storage hydration).
func Reconstruct(id, filename, sourceURL, content string, vector []float32, createdAt time.Time) Resume {
	return Resume{
		id:        id,
		filename:  filename,
		sourceURL: sourceURL,
		content:   content,
		vector:    vector,
		createdAt: createdAt,
	}
}

// ID returns the resume identifier.
func (r *Resume) ID() string { return r.id }

// Filename returns the original upload filename.
func (r *Resume) Filename() string { return r.filename }

// SourceURL returns the optional external location of the original file.
func (r *Resume) SourceURL() string { return r.sourceURL }

// Content returns the extracted resume text.
func (r *Resume) Content() string { return r.content }

// Vector returns the embedding vector.
func (r *Resume) Vector() []float32 { return r.vector }

// CreatedAt returns the ingestion timestamp.
func (r *Resume) CreatedAt() time.Time { return r.createdAt }

// WithVector returns a copy with the given vector set.
func (r *Resume) WithVector(v []float32) Resume {
	return Resume{
		id: r.id, filename: r.filename, sourceURL: r.sourceURL,
		content: r.content, vector: v, createdAt: r.createdAt,
	}
}

// HasContent reports whether the extracted text is non-blank.
func (r *Resume) HasContent() bool {
	return strings.TrimSpace(r.content) != ""
}

// Preview returns the first PreviewLength runes of the content.
func (r *Resume) Preview() string {
	runes := []rune(r.content)
	if len(runes) <= PreviewLength {
		return r.content
	}
	return string(runes[:PreviewLength])
}
