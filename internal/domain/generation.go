package domain

import "context"

// Generator produces improvement feedback for one resume against a job
// description. Implementations must be safe for concurrent use; failures
// are absorbed per match item by the ranking pipeline, so a Generator
// error never aborts a whole ranking request.
type Generator interface {
	Generate(ctx context.Context, jobDescription, resumeText string) (string, error)
}
