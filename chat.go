package parley

import "context"

// ChatRequest is a single user turn sent to the chat backend.
// ConversationID is empty for a brand-new conversation.
type ChatRequest struct {
	UID            string
	Message        string
	ConversationID string
}

// ChatReply is the backend's answer to a ChatRequest.
type ChatReply struct {
	Response          string
	ConversationID    string
	MessageCount      int
	IsNewConversation bool
}

// ChatService is the conversational backend. Failures are reported as
// *RemoteError (or errors wrapping ErrNotFound for unknown conversations).
type ChatService interface {
	Send(ctx context.Context, req ChatRequest) (ChatReply, error)
	Conversations(ctx context.Context, uid string) ([]ConversationSummary, error)
	Conversation(ctx context.Context, uid, id string) (ConversationHistory, error)
}

// ConversationLog stores conversation threads for backends that keep history
// locally. Append creates the thread with title on first use; title is
// ignored afterwards. Get returns an error wrapping ErrNotFound when the
// thread does not exist for uid.
type ConversationLog interface {
	Append(ctx context.Context, uid, id, title string, records ...HistoryRecord) error
	Get(ctx context.Context, uid, id string) (ConversationHistory, error)
	List(ctx context.Context, uid string) ([]ConversationSummary, error)
}
