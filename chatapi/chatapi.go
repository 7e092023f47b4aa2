// Package chatapi is the HTTP client for the remote parley chat backend.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/parley"
)

// Interface compliance check.
var _ parley.ChatService = (*Client)(nil)

// Client implements [parley.ChatService] over the backend's JSON endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	token      func() string
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for failed exchanges.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithToken sets a source for the bearer token sent with every request.
// Requests carry no Authorization header while it returns "".
func WithToken(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// New creates a [Client] for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send posts one user turn to /chat.
func (c *Client) Send(ctx context.Context, req parley.ChatRequest) (parley.ChatReply, error) {
	body, err := json.Marshal(chatRequest{
		UID:            req.UID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return parley.ChatReply{}, fmt.Errorf("chatapi: %w", err)
	}

	var resp chatResponse
	if _, err := c.do(ctx, http.MethodPost, "/chat", bytes.NewReader(body), &resp); err != nil {
		return parley.ChatReply{}, err
	}
	if !resp.Success {
		return parley.ChatReply{}, c.failure("/chat", resp.Error)
	}
	return parley.ChatReply{
		Response:          resp.Response,
		ConversationID:    resp.ConversationID,
		MessageCount:      resp.MessageCount,
		IsNewConversation: resp.IsNewConversation,
	}, nil
}

// Conversations lists the stored conversations of uid.
func (c *Client) Conversations(ctx context.Context, uid string) ([]parley.ConversationSummary, error) {
	path := "/conversations?uid=" + url.QueryEscape(uid)
	var resp listResponse
	if _, err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, c.failure("/conversations", resp.Error)
	}
	out := make([]parley.ConversationSummary, len(resp.Conversations))
	for i, s := range resp.Conversations {
		out[i] = parley.ConversationSummary{
			ID:           s.ID,
			Title:        s.Title,
			MessageCount: s.MessageCount,
			CreatedAt:    s.CreatedAt.Time,
			UpdatedAt:    s.UpdatedAt.Time,
		}
	}
	return out, nil
}

// Conversation fetches the stored thread id of uid. An unknown id yields an
// error wrapping parley.ErrNotFound.
func (c *Client) Conversation(ctx context.Context, uid, id string) (parley.ConversationHistory, error) {
	path := "/conversations/" + url.PathEscape(id) + "?uid=" + url.QueryEscape(uid)
	var resp conversationResponse
	status, err := c.do(ctx, http.MethodGet, path, nil, &resp)
	if status == http.StatusNotFound {
		return parley.ConversationHistory{}, fmt.Errorf("chatapi: conversation %s: %w", id, parley.ErrNotFound)
	}
	if err != nil {
		return parley.ConversationHistory{}, err
	}
	if !resp.Success {
		return parley.ConversationHistory{}, c.failure("/conversations/{id}", resp.Error)
	}
	h := parley.ConversationHistory{
		ID:      id,
		Title:   resp.Conversation.Title,
		Records: make([]parley.HistoryRecord, len(resp.Conversation.Messages)),
	}
	for i, m := range resp.Conversation.Messages {
		h.Records[i] = parley.HistoryRecord{
			Content:   m.Content,
			Role:      m.Role,
			Timestamp: m.Timestamp.Time,
		}
	}
	return h, nil
}

// do performs a request and decodes the JSON body into out. It returns the
// HTTP status when a response was received.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("chatapi: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("chatapi: %w", ctxErr)
		}
		c.logger.Warn("chat backend unreachable", "method", method, "error", err)
		return 0, &parley.RemoteError{Message: "Could not reach the chat service.", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, &parley.RemoteError{Message: "Could not read the chat service response.", Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("chat backend returned non-JSON body", "status", resp.StatusCode)
		return resp.StatusCode, &parley.RemoteError{
			Message: fmt.Sprintf("Unexpected response from the chat service (HTTP %d).", resp.StatusCode),
			Err:     err,
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) failure(endpoint, message string) error {
	c.logger.Warn("chat backend reported failure", "endpoint", endpoint, "error", message)
	if message == "" {
		message = "The chat service reported an error."
	}
	return &parley.RemoteError{Message: message}
}

type chatRequest struct {
	UID            string `json:"uid"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Success           bool   `json:"success"`
	Response          string `json:"response"`
	ConversationID    string `json:"conversation_id"`
	MessageCount      int    `json:"message_count"`
	IsNewConversation bool   `json:"is_new_conversation"`
	Error             string `json:"error"`
}

type listResponse struct {
	Success       bool         `json:"success"`
	Conversations []summaryDTO `json:"conversations"`
	Error         string       `json:"error"`
}

type summaryDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    timestamp `json:"created_at"`
	UpdatedAt    timestamp `json:"updated_at"`
}

type conversationResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	Conversation struct {
		Title    string `json:"title"`
		Messages []struct {
			Content   string    `json:"content"`
			Role      string    `json:"role"`
			Timestamp timestamp `json:"timestamp"`
		} `json:"messages"`
	} `json:"conversation"`
}

// timestamp accepts RFC 3339 strings, Unix epoch numbers (seconds, or
// milliseconds when large) and Firestore {"_seconds","_nanoseconds"} objects.
type timestamp struct {
	time.Time
}

var errTimestamp = errors.New("unsupported timestamp format")

func (t *timestamp) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("%w: %q", errTimestamp, s)
		}
		t.Time = parsed
	case len(data) > 0 && data[0] == '{':
		var fs struct {
			Seconds     int64 `json:"_seconds"`
			Nanoseconds int64 `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(data, &fs); err != nil {
			return err
		}
		t.Time = time.Unix(fs.Seconds, fs.Nanoseconds).UTC()
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", errTimestamp, data)
		}
		if n > 1e12 {
			t.Time = time.UnixMilli(int64(n)).UTC()
		} else {
			t.Time = time.Unix(int64(n), 0).UTC()
		}
	}
	return nil
}
