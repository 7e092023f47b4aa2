package gemini

import (
	"context"
	"time"

	"github.com/fwojciec/parley"
	"google.golang.org/genai"
)

// GenerateFunc exposes the model call signature for tests.
type GenerateFunc = func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// NewWithGenerator builds a Backend around a fake model call.
func NewWithGenerator(generate GenerateFunc, log parley.ConversationLog, id string, now time.Time, opts ...Option) *Backend {
	b := newBackend(generate, log, opts...)
	b.newID = func() string { return id }
	b.now = func() time.Time { return now }
	return b
}
