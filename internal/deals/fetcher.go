// Package deals finds promotional deals near a user by querying a
// generative model, with a per-user 24-hour cache in front of it.
package deals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartcard-app/smartcard/internal/common"
	"github.com/smartcard-app/smartcard/internal/llm"
	"github.com/smartcard-app/smartcard/internal/service"
)

// maxDealsPerStore caps how many phrases one store contributes.
const maxDealsPerStore = 5

// defaultFetchTimeout bounds one model call. The model is the single most
// failure-prone and highest-latency dependency in the system.
const defaultFetchTimeout = 30 * time.Second

// Fetcher asks the generative model for promotional phrases for one store.
// It never returns an error: failures and unparseable output degrade to
// generic fallback phrases so one store can never abort a batch.
type Fetcher struct {
	generator service.TextGenerator
	logger    *slog.Logger
	timeout   time.Duration
	retryOpts service.RetryOptions
}

// NewFetcher creates a Fetcher over a text generator.
func NewFetcher(generator service.TextGenerator, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		generator: generator,
		logger:    logger,
		timeout:   defaultFetchTimeout,
		retryOpts: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 500 * time.Millisecond,
		},
	}
}

// FetchForStore returns 2-5 promotional phrases for the store.
func (f *Fetcher) FetchForStore(ctx context.Context, storeName, category string) []string {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var response string
	err := common.WithRetry(ctx, func() error {
		resp, err := f.generator.Generate(ctx, dealsPrompt(storeName))
		if err != nil {
			f.logger.Warn("deal fetch attempt failed",
				"store", storeName,
				"error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		response = resp
		return nil
	}, f.retryOpts)
	if err != nil {
		f.logger.Warn("deal fetch failed, using fallback",
			"store", storeName,
			"error", err)
		return []string{
			fmt.Sprintf("Current promotions at %s", storeName),
			fmt.Sprintf("Deals on %s items", category),
		}
	}

	phrases, err := llm.ExtractStringArray(response, maxDealsPerStore)
	if err != nil {
		f.logger.Warn("unparseable deal response, using fallback",
			"store", storeName,
			"error", err)
		return []string{
			fmt.Sprintf("Special offers at %s", storeName),
			fmt.Sprintf("Weekly deals on %s items", category),
			"Check in-store for current promotions",
		}
	}

	return phrases
}

// dealsPrompt builds the request for five short promotional phrases.
func dealsPrompt(storeName string) string {
	return fmt.Sprintf(`Find the 5 BEST current promotional deals or discounts available at %s.
Focus on the most valuable, eye-catching deals that customers can use today. Include:
- Biggest percentage discounts
- Best dollar amount savings
- Most attractive BOGO offers
- Top category promotions
- Exact products on sale if possible

Format each deal as a short, catchy phrase (max 50 characters). Return ONLY a JSON array of 5 deals, like:
["Deal 1", "Deal 2", "Deal 3", "Deal 4", "Deal 5"]

Do not include any other text, just the JSON array.`, storeName)
}
