package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/parley"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ parley.ChatService = (*Backend)(nil)

// generateFunc is the single model call the backend needs.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Backend implements [parley.ChatService] with Gemini and a local
// conversation log.
type Backend struct {
	generate     generateFunc
	log          parley.ConversationLog
	model        string
	systemPrompt string
	maxTokens    int
	newID        func() string
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a [Backend].
type Option func(*Backend)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(b *Backend) { b.model = model }
}

// WithSystemPrompt sets the system instruction sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(b *Backend) { b.systemPrompt = prompt }
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int) Option {
	return func(b *Backend) { b.maxTokens = n }
}

// WithLogger sets the logger for model failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates a [Backend] with the given API key, storing threads in log.
func New(ctx context.Context, apiKey string, log parley.ConversationLog, opts ...Option) (*Backend, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newBackend(gc.Models.GenerateContent, log, opts...), nil
}

func newBackend(generate generateFunc, log parley.ConversationLog, opts ...Option) *Backend {
	b := &Backend{
		generate:  generate,
		log:       log,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Send answers one user turn. A request without a conversation id starts a
// new thread titled after the message.
func (b *Backend) Send(ctx context.Context, req parley.ChatRequest) (parley.ChatReply, error) {
	id := req.ConversationID
	isNew := id == ""

	var history parley.ConversationHistory
	var title string
	if isNew {
		id = b.newID()
		title = Title(req.Message)
	} else {
		h, err := b.log.Get(ctx, req.UID, id)
		if err != nil {
			return parley.ChatReply{}, fmt.Errorf("gemini: %w", err)
		}
		history = h
	}

	contents := append(ConvertHistory(history.Records), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Message}},
	})

	asked := b.now()
	resp, err := b.generate(ctx, b.model, contents, b.config())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return parley.ChatReply{}, fmt.Errorf("gemini: %w", ctxErr)
		}
		b.logger.Warn("generate content failed", "model", b.model, "error", err)
		return parley.ChatReply{}, &parley.RemoteError{
			Message: "The assistant is unavailable right now. Please try again.",
			Err:     err,
		}
	}
	text := ResponseText(resp)
	if text == "" {
		return parley.ChatReply{}, &parley.RemoteError{
			Message: "The assistant returned an empty response.",
			Err:     errors.New("no text candidates"),
		}
	}

	err = b.log.Append(ctx, req.UID, id, title,
		parley.HistoryRecord{Content: req.Message, Role: "user", Timestamp: asked},
		parley.HistoryRecord{Content: text, Role: "model", Timestamp: b.now()},
	)
	if err != nil {
		return parley.ChatReply{}, fmt.Errorf("gemini: store exchange: %w", err)
	}

	return parley.ChatReply{
		Response:          text,
		ConversationID:    id,
		MessageCount:      len(history.Records) + 2,
		IsNewConversation: isNew,
	}, nil
}

// Conversations lists the stored threads of uid.
func (b *Backend) Conversations(ctx context.Context, uid string) ([]parley.ConversationSummary, error) {
	list, err := b.log.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return list, nil
}

// Conversation returns the stored thread id of uid.
func (b *Backend) Conversation(ctx context.Context, uid, id string) (parley.ConversationHistory, error) {
	h, err := b.log.Get(ctx, uid, id)
	if err != nil {
		return parley.ConversationHistory{}, fmt.Errorf("gemini: %w", err)
	}
	return h, nil
}

func (b *Backend) config() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(b.maxTokens),
	}
	if b.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: b.systemPrompt}},
		}
	}
	return config
}

// ConvertHistory converts stored records to genai Contents. Records whose
// role is not shown in conversations are dropped.
func ConvertHistory(records []parley.HistoryRecord) []*genai.Content {
	var result []*genai.Content
	for _, r := range records {
		sender, ok := parley.SenderForRole(r.Role)
		if !ok {
			continue
		}
		role := "user"
		if sender == parley.SenderAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: r.Content}},
		})
	}
	return result
}

// ResponseText joins the non-thought text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// Title derives a conversation title from its first message: whitespace is
// collapsed and the result truncated to TitleWidth display cells.
func Title(message string) string {
	return runewidth.Truncate(strings.Join(strings.Fields(message), " "), TitleWidth, "…")
}
