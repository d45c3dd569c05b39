package ai

import "context"

// ChatProvider sends a single-turn chat prompt to an inference endpoint and
// returns the raw assistant text. Used only by Analyzer; not exported to the
// rest of the system.
type ChatProvider interface {
	Chat(ctx context.Context, prompt string) (string, error)
	// Ping issues a minimal request with a short timeout budget; nil means
	// the endpoint answered 200.
	Ping(ctx context.Context) error
}
