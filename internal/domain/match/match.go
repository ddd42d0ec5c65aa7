package match

import (
	"sort"
	"time"

	"github.com/talentsift/resumatch/internal/domain"
)

// Match is a single ranked hit of a resume against a job description.
type Match struct {
	resumeID     string
	filename     string
	sourceURL    string
	similarity   float64
	scorePercent float64
	content      string
	createdAt    time.Time
	feedback     string
}

// New creates a Match. Similarity is clamped to [0, 1] and the
// percentage score derived from the clamped value.
func New(resumeID, filename, sourceURL string, similarity float64, content string, createdAt time.Time) Match {
	clamped := domain.ClampScore(similarity)
	return Match{
		resumeID:     resumeID,
		filename:     filename,
		sourceURL:    sourceURL,
		similarity:   clamped,
		scorePercent: domain.ScorePercent(similarity),
		content:      content,
		createdAt:    createdAt,
	}
}

// ResumeID returns the matched resume identifier.
func (m *Match) ResumeID() string { return m.resumeID }

// Filename returns the matched resume filename.
func (m *Match) Filename() string { return m.filename }

// SourceURL returns the external location of the original file.
func (m *Match) SourceURL() string { return m.sourceURL }

// Similarity returns the clamped similarity score in [0, 1].
func (m *Match) Similarity() float64 { return m.similarity }

// ScorePercent returns the similarity as a percentage with two decimals.
func (m *Match) ScorePercent() float64 { return m.scorePercent }

// Content returns the stored resume text used for feedback generation.
func (m *Match) Content() string { return m.content }

// CreatedAt returns the resume ingestion timestamp.
func (m *Match) CreatedAt() time.Time { return m.createdAt }

// Feedback returns the per-match feedback text (empty until attached).
func (m *Match) Feedback() string { return m.feedback }

// WithFeedback returns a copy with the feedback text set.
func (m *Match) WithFeedback(text string) Match {
	c := *m
	c.feedback = text
	return c
}

// Sort orders matches best-first: similarity desc, then ingestion time
// asc, then resume ID asc. The order is total, so identical inputs rank
// identically regardless of backend return order.
func Sort(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		if !matches[i].createdAt.Equal(matches[j].createdAt) {
			return matches[i].createdAt.Before(matches[j].createdAt)
		}
		return matches[i].resumeID < matches[j].resumeID
	})
}

// ApplyThreshold drops matches scoring below min. Backends already
// filter, this guards against drift in their score handling.
func ApplyThreshold(matches []Match, min float64) []Match {
	kept := matches[:0]
	for _, m := range matches {
		if m.similarity >= min {
			kept = append(kept, m)
		}
	}
	return kept
}

// Cap truncates matches to at most n entries.
func Cap(matches []Match, n int) []Match {
	if n >= 0 && len(matches) > n {
		return matches[:n]
	}
	return matches
}
