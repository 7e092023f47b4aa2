package parley

import "time"

// Sender identifies who authored a Message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single entry in a conversation. Messages are appended in
// arrival order and never mutated.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

// Conversation is an ordered thread of messages. ID is empty until the
// backend assigns one.
type Conversation struct {
	ID       string
	Messages []Message
}

// ConversationSummary describes a stored conversation in the history list.
type ConversationSummary struct {
	ID           string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConversationHistory is a stored thread as returned by a ChatService.
type ConversationHistory struct {
	ID      string
	Title   string
	Records []HistoryRecord
}

// HistoryRecord is one stored message. Role is backend-defined; "user" marks
// the user's turns.
type HistoryRecord struct {
	Content   string
	Role      string
	Timestamp time.Time
}

// SenderForRole maps a stored record's role to a Sender. The second result
// is false for roles that are not shown in the conversation (e.g. "system").
func SenderForRole(role string) (Sender, bool) {
	switch role {
	case "user":
		return SenderUser, true
	case "assistant", "ai", "model":
		return SenderAssistant, true
	default:
		return "", false
	}
}
