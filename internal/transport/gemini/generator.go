// Package gemini implements domain.Generator on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/talentsift/resumatch/internal/domain"
)

const defaultModel = "gemini-2.5-flash"

const promptTemplate = `You are an experienced technical recruiter reviewing a candidate resume against a job description.

Give the candidate concise, actionable feedback on improving the resume for this specific role. Point out missing skills and experience gaps the job description asks for, and suggest wording that would strengthen alignment. Answer with at most five short plain-text bullet points. Never invent facts that are not in the resume.

Job description:
%s

Resume:
%s`

// models is the slice of the genai SDK the generator calls.
// *genai.Models satisfies it.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator produces resume feedback through the Gemini API.
type Generator struct {
	models models
	model  string
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey string
	Model  string // empty for the default model
}

// NewGenerator creates a Gemini-backed feedback generator.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{models: client.Models, model: model}, nil
}

// Generate implements domain.Generator. Failures wrap
// domain.ErrGenerationFailed so the ranking pipeline can absorb them
// per match item.
func (g *Generator) Generate(ctx context.Context, jobDescription, resumeText string) (string, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	resumeText = strings.TrimSpace(resumeText)
	if jobDescription == "" || resumeText == "" {
		return "", fmt.Errorf("blank input: %w", domain.ErrGenerationFailed)
	}

	prompt := fmt.Sprintf(promptTemplate, jobDescription, resumeText)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %v: %w", err, domain.ErrGenerationFailed)
	}

	output := joinParts(resp)
	if output == "" {
		return "", fmt.Errorf("empty model response: %w", domain.ErrGenerationFailed)
	}

	return output, nil
}

// Model returns the configured model name for logging and metric labels.
func (g *Generator) Model() string { return g.model }

// joinParts concatenates the non-empty text parts of every candidate.
func joinParts(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}
