package rank

import (
	"fmt"
	"strings"

	"github.com/talentsift/resumatch/internal/domain"
)

// Request parameter limits.
const (
	// MaxQueryLength is the maximum allowed job description length.
	MaxQueryLength = 16384
	// MaxResults is the hard cap on requested results.
	MaxResults = 100
	// PreviewLength is the number of runes echoed back as query preview.
	PreviewLength = 150
)

// Request is a validated ranking query.
type Request struct {
	jobDescription string
	threshold      float64
	limit          int
	withFeedback   bool
}

// New validates and creates a ranking request. The job description must
// be non-blank, threshold within [0, 1] and limit positive; violations
// reject with domain.ErrInvalidArgument before any I/O. Limits above
// MaxResults are clamped.
func New(jobDescription string, threshold float64, limit int, withFeedback bool) (Request, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return Request{}, fmt.Errorf("%w: job description is required", domain.ErrInvalidArgument)
	}
	if len(jobDescription) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: job description too long (max %d chars)", domain.ErrInvalidArgument, MaxQueryLength)
	}
	if threshold < 0 || threshold > 1 {
		return Request{}, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidArgument)
	}
	if limit <= 0 {
		return Request{}, fmt.Errorf("%w: max results must be positive", domain.ErrInvalidArgument)
	}
	if limit > MaxResults {
		limit = MaxResults
	}

	return Request{
		jobDescription: jobDescription,
		threshold:      threshold,
		limit:          limit,
		withFeedback:   withFeedback,
	}, nil
}

// JobDescription returns the raw job description text.
func (r *Request) JobDescription() string { return r.jobDescription }

// Threshold returns the minimum similarity for a hit.
func (r *Request) Threshold() float64 { return r.threshold }

// Limit returns the maximum number of matches to return.
func (r *Request) Limit() int { return r.limit }

// WithFeedback reports whether per-match feedback was requested.
func (r *Request) WithFeedback() bool { return r.withFeedback }

// Preview returns the first PreviewLength runes of the trimmed query.
func (r *Request) Preview() string {
	trimmed := strings.TrimSpace(r.jobDescription)
	runes := []rune(trimmed)
	if len(runes) <= PreviewLength {
		return trimmed
	}
	return string(runes[:PreviewLength])
}
