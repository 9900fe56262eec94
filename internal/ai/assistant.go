package ai

import "context"

// Request is a single structured prompt sent to a completion service.
type Request struct {
	// Flow names the calling flow. Used for logging only.
	Flow   string
	System string
	Prompt string
	// JSON asks the service to answer with a JSON document.
	JSON bool
}

// Completer is the completion service boundary. Implementations must not keep
// state between calls.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}
