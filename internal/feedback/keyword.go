// Package feedback provides offline feedback generation. The keyword
// generator is deterministic and needs no network, which makes it the
// default provider and the fixture of choice in tests and examples.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/talentsift/resumatch/internal/domain"
)

// maxMissingTerms caps the suggestion list appended to the verdict.
const maxMissingTerms = 10

// stopWords filters common English words that add noise to keyword coverage.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "good": true,
	"able": true, "get": true, "set": true, "such": true, "other": true,
	"years": true, "experience": true, "skills": true, "candidate": true,
	"looking": true, "required": true, "must": true, "plus": true,
}

// KeywordGenerator implements domain.Generator by comparing keyword
// coverage between the job description and the resume.
type KeywordGenerator struct{}

// NewKeywordGenerator creates the offline keyword generator.
func NewKeywordGenerator() *KeywordGenerator { return &KeywordGenerator{} }

// Generate implements domain.Generator. The output is a coverage-tiered
// verdict plus up to ten alphabetically sorted terms from the job
// description that the resume does not mention. Identical input always
// produces identical output.
func (g *KeywordGenerator) Generate(_ context.Context, jobDescription, resumeText string) (string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return "", fmt.Errorf("blank job description: %w", domain.ErrGenerationFailed)
	}

	jobKW := extractKeywords(jobDescription)
	resumeKW := extractKeywords(resumeText)

	matched := 0
	var missing []string
	for kw := range jobKW {
		if resumeKW[kw] {
			matched++
		} else {
			missing = append(missing, kw)
		}
	}

	coverage := 0.0
	if len(jobKW) > 0 {
		coverage = float64(matched) / float64(len(jobKW)) * 100
	}

	var verdict string
	switch {
	case coverage >= 80:
		verdict = "Great match! Your resume aligns very well with the job description."
	case coverage >= 60:
		verdict = "Decent match. You can improve your resume by adding more relevant content."
	default:
		verdict = "Weak match. Try tailoring your resume more closely to the job description."
	}

	if len(missing) == 0 {
		return verdict, nil
	}

	sort.Strings(missing)
	if len(missing) > maxMissingTerms {
		missing = missing[:maxMissingTerms]
	}

	return verdict + "\n\nConsider adding these terms to improve alignment: " + strings.Join(missing, ", "), nil
}

// extractKeywords tokenizes text into lowercase keywords, skipping stop
// words and tokens shorter than 3 runes. Treats + # . as word characters
// so tech terms like "c++" and "node.js" survive tokenization.
func extractKeywords(text string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := word.String()
		word.Reset()
		w = strings.TrimRight(w, ".")
		if len([]rune(w)) >= 3 && !stopWords[w] {
			kw[w] = true
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}
