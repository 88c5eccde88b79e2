package interfaces

import "context"

// Decider turns a prompt (or a chart screenshot) into raw model text.
// Implementations must return text roughly following the line-prefixed
// signal schema; the parser tolerates deviations.
type Decider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, imageURL, caption string) (string, error)
}
