// Package mock provides test doubles for parley interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// Interface compliance checks.
var (
	_ parley.SessionStore    = (*SessionStore)(nil)
	_ parley.ChatService     = (*ChatService)(nil)
	_ parley.Authenticator   = (*Authenticator)(nil)
	_ parley.ConversationLog = (*ConversationLog)(nil)
)

// SessionStore is a test double for parley.SessionStore.
// Set the function fields for the methods you need.
type SessionStore struct {
	SaveFn  func(s parley.Session) error
	GetFn   func() (*parley.Session, error)
	ClearFn func() error
}

// Save delegates to SaveFn.
func (s *SessionStore) Save(sess parley.Session) error {
	return s.SaveFn(sess)
}

// Get delegates to GetFn.
func (s *SessionStore) Get() (*parley.Session, error) {
	return s.GetFn()
}

// Clear delegates to ClearFn.
func (s *SessionStore) Clear() error {
	return s.ClearFn()
}

// ChatService is a test double for parley.ChatService.
type ChatService struct {
	SendFn          func(ctx context.Context, req parley.ChatRequest) (parley.ChatReply, error)
	ConversationsFn func(ctx context.Context, uid string) ([]parley.ConversationSummary, error)
	ConversationFn  func(ctx context.Context, uid, id string) (parley.ConversationHistory, error)
}

// Send delegates to SendFn.
func (c *ChatService) Send(ctx context.Context, req parley.ChatRequest) (parley.ChatReply, error) {
	return c.SendFn(ctx, req)
}

// Conversations delegates to ConversationsFn.
func (c *ChatService) Conversations(ctx context.Context, uid string) ([]parley.ConversationSummary, error) {
	return c.ConversationsFn(ctx, uid)
}

// Conversation delegates to ConversationFn.
func (c *ChatService) Conversation(ctx context.Context, uid, id string) (parley.ConversationHistory, error) {
	return c.ConversationFn(ctx, uid, id)
}

// Authenticator is a test double for parley.Authenticator.
type Authenticator struct {
	RegisterFn func(ctx context.Context, name, email, password string) (parley.Session, error)
	LoginFn    func(ctx context.Context, email, password string) (parley.Session, error)
}

// Register delegates to RegisterFn.
func (a *Authenticator) Register(ctx context.Context, name, email, password string) (parley.Session, error) {
	return a.RegisterFn(ctx, name, email, password)
}

// Login delegates to LoginFn.
func (a *Authenticator) Login(ctx context.Context, email, password string) (parley.Session, error) {
	return a.LoginFn(ctx, email, password)
}

// ConversationLog is a test double for parley.ConversationLog.
type ConversationLog struct {
	AppendFn func(ctx context.Context, uid, id, title string, records ...parley.HistoryRecord) error
	GetFn    func(ctx context.Context, uid, id string) (parley.ConversationHistory, error)
	ListFn   func(ctx context.Context, uid string) ([]parley.ConversationSummary, error)
}

// Append delegates to AppendFn.
func (l *ConversationLog) Append(ctx context.Context, uid, id, title string, records ...parley.HistoryRecord) error {
	return l.AppendFn(ctx, uid, id, title, records...)
}

// Get delegates to GetFn.
func (l *ConversationLog) Get(ctx context.Context, uid, id string) (parley.ConversationHistory, error) {
	return l.GetFn(ctx, uid, id)
}

// List delegates to ListFn.
func (l *ConversationLog) List(ctx context.Context, uid string) ([]parley.ConversationSummary, error) {
	return l.ListFn(ctx, uid)
}
