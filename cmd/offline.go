package cmd

import (
	"context"
	"errors"

	"github.com/spigell/careercraft/internal/ai"
)

var errOffline = errors.New("completion service is not configured")

// offlineCompleter backs commands that only describe flows.
type offlineCompleter struct{}

func (offlineCompleter) Complete(context.Context, ai.Request) (string, error) {
	return "", errOffline
}

func (offlineCompleter) Model() string { return "" }
