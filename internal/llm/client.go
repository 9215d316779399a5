package llm

import (
	"context"
	"time"
)

// Client is the provider-facing interface: one prompt in, free-form text
// out. It satisfies service.TextGenerator.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the generative model client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	RateLimit   int // requests per minute, client-side
	Temperature float64
	MaxTokens   int
}
