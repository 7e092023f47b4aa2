package parley

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the pending-request state of a Controller.
type State int

const (
	StateIdle     State = iota // No request in flight; Submit accepted.
	StateSending               // User message appended, reply pending.
	StateCooldown              // Reply received; Submit rejected until expiry.
	StateLoading               // Fetching a stored conversation.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateCooldown:
		return "cooldown"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Controller owns the in-memory conversation and its pending-request state.
// At most one request is in flight at a time. The blocking half of each
// operation is returned as a *Call so it can run off the event goroutine;
// the Controller is safe for concurrent use.
type Controller struct {
	chat     ChatService
	sessions SessionStore
	now      func() time.Time
	newID    func() string
	cooldown time.Duration
	onChange func()

	mu            sync.Mutex
	state         State
	conv          Conversation
	err           error
	gen           uint64 // bumped whenever pending work must be discarded
	cancelPending context.CancelFunc
	cooldownTimer *time.Timer
	cooldownUntil time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithCooldown enables the send cooldown: after each settled request the
// controller stays in StateCooldown for d. Zero disables it.
func WithCooldown(d time.Duration) ControllerOption {
	return func(c *Controller) { c.cooldown = d }
}

// WithIDFunc sets the generator for message IDs. The default is a random
// UUID.
func WithIDFunc(fn func() string) ControllerOption {
	return func(c *Controller) { c.newID = fn }
}

// WithClock sets the time source for message timestamps and cooldowns.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithChangeHandler sets a callback invoked after transitions that happen
// off the caller's goroutine: a reply or history arriving, and cooldown
// expiry. It is called without the controller lock held.
func WithChangeHandler(fn func()) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

// NewController creates an idle Controller with an unassigned conversation.
func NewController(chat ChatService, sessions SessionStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		chat:     chat,
		sessions: sessions,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Call is the blocking half of a controller operation.
type Call struct {
	c    *Controller
	gen  uint64
	used bool
	fn   func(ctx context.Context) error
}

// Do performs the remote request and applies its outcome to the controller.
// It returns context.Canceled when the operation was cancelled or superseded
// before its outcome could be applied. Do runs at most once per Call.
func (p *Call) Do(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.c.mu.Lock()
	if p.used || p.c.gen != p.gen {
		p.c.mu.Unlock()
		return context.Canceled
	}
	p.used = true
	p.c.cancelPending = cancel
	p.c.mu.Unlock()

	err := p.fn(ctx)
	if p.c.onChange != nil {
		p.c.onChange()
	}
	return err
}

// Submit appends a user message and returns the Call that sends it.
// It fails without changing state with ErrEmptyMessage for blank text,
// ErrBusy while sending or loading, ErrCoolingDown during the cooldown, and
// ErrAuthRequired when no authenticated session is stored.
func (c *Controller) Submit(text string) (*Call, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateSending, StateLoading:
		return nil, ErrBusy
	case StateCooldown:
		return nil, ErrCoolingDown
	}

	s, err := c.sessions.Get()
	if err != nil || !s.Authenticated() {
		return nil, ErrAuthRequired
	}

	c.err = nil
	c.conv.Messages = append(c.conv.Messages, Message{
		ID:        c.newID(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: c.now(),
	})
	c.state = StateSending
	c.gen++

	req := ChatRequest{
		UID:            s.UID,
		Message:        text,
		ConversationID: c.conv.ID,
	}
	gen := c.gen
	return &Call{c: c, gen: gen, fn: func(ctx context.Context) error {
		return c.exchange(ctx, gen, req)
	}}, nil
}

// Send submits text and waits for the reply.
func (c *Controller) Send(ctx context.Context, text string) error {
	call, err := c.Submit(text)
	if err != nil {
		return err
	}
	return call.Do(ctx)
}

func (c *Controller) exchange(ctx context.Context, gen uint64, req ChatRequest) error {
	reply, err := c.chat.Send(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return context.Canceled
	}
	c.cancelPending = nil

	if err != nil {
		c.err = err
		c.state = StateIdle
		return err
	}
	if c.conv.ID == "" && reply.ConversationID != "" {
		c.conv.ID = reply.ConversationID
	}
	c.conv.Messages = append(c.conv.Messages, Message{
		ID:        c.newID(),
		Text:      reply.Response,
		Sender:    SenderAssistant,
		Timestamp: c.now(),
	})
	c.settleLocked()
	return nil
}

// Cancel stops waiting for the in-flight reply. The reply, if it ever
// arrives, is discarded; the user message stays. It reports whether a
// request was pending.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSending {
		return false
	}
	c.gen++
	c.abortPendingLocked()
	c.settleLocked()
	return true
}

// LoadConversation replaces the current conversation with the stored thread
// id and returns the Call that fetches it. Any pending request or cooldown
// is discarded. It fails with ErrAuthRequired when no authenticated session
// is stored.
func (c *Controller) LoadConversation(id string) (*Call, error) {
	if id == "" {
		return nil, fmt.Errorf("empty conversation id: %w", ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.sessions.Get()
	if err != nil || !s.Authenticated() {
		return nil, ErrAuthRequired
	}

	c.resetLocked()
	c.state = StateLoading
	gen := c.gen
	uid := s.UID
	return &Call{c: c, gen: gen, fn: func(ctx context.Context) error {
		return c.load(ctx, gen, uid, id)
	}}, nil
}

func (c *Controller) load(ctx context.Context, gen uint64, uid, id string) error {
	history, err := c.chat.Conversation(ctx, uid, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return context.Canceled
	}
	c.cancelPending = nil
	c.state = StateIdle

	if err != nil {
		c.err = err
		c.conv = Conversation{}
		return err
	}

	msgs := make([]Message, 0, len(history.Records))
	for _, r := range history.Records {
		sender, ok := SenderForRole(r.Role)
		if !ok {
			continue
		}
		msgs = append(msgs, Message{
			ID:        c.newID(),
			Text:      r.Content,
			Sender:    sender,
			Timestamp: r.Timestamp,
		})
	}
	c.conv = Conversation{ID: id, Messages: msgs}
	return nil
}

// Conversations lists the stored conversations of the session user.
func (c *Controller) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	s, err := c.sessions.Get()
	if err != nil || !s.Authenticated() {
		return nil, ErrAuthRequired
	}
	return c.chat.Conversations(ctx, s.UID)
}

// Reset clears the conversation, pending state and any cooldown. It is valid
// from every state and leaves the controller idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Close releases timers and pending work. The controller remains usable and
// idle afterwards.
func (c *Controller) Close() { c.Reset() }

func (c *Controller) resetLocked() {
	c.gen++
	c.abortPendingLocked()
	c.stopCooldownLocked()
	c.state = StateIdle
	c.conv = Conversation{}
	c.err = nil
}

func (c *Controller) abortPendingLocked() {
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
}

// settleLocked ends a request: idle, or cooldown when the policy is enabled.
func (c *Controller) settleLocked() {
	c.stopCooldownLocked()
	if c.cooldown <= 0 {
		c.state = StateIdle
		return
	}
	c.state = StateCooldown
	c.cooldownUntil = c.now().Add(c.cooldown)
	gen := c.gen
	c.cooldownTimer = time.AfterFunc(c.cooldown, func() { c.expireCooldown(gen) })
}

func (c *Controller) stopCooldownLocked() {
	if c.cooldownTimer != nil {
		c.cooldownTimer.Stop()
		c.cooldownTimer = nil
	}
	c.cooldownUntil = time.Time{}
}

func (c *Controller) expireCooldown(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateCooldown {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.cooldownTimer = nil
	c.cooldownUntil = time.Time{}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
}

// Snapshot is a consistent copy of the controller's observable state.
type Snapshot struct {
	State             State
	Conversation      Conversation
	Err               error
	CooldownRemaining time.Duration
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State: c.state,
		Conversation: Conversation{
			ID:       c.conv.ID,
			Messages: slices.Clone(c.conv.Messages),
		},
		Err:               c.err,
		CooldownRemaining: c.cooldownRemainingLocked(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the message list in append order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.conv.Messages)
}

// ConversationID returns the assigned conversation id, or "".
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.ID
}

// Err returns the error of the last failed request, cleared by the next
// Submit, LoadConversation or Reset.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CooldownRemaining returns how long Submit stays rejected, or zero.
func (c *Controller) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cooldownRemainingLocked()
}

func (c *Controller) cooldownRemainingLocked() time.Duration {
	if c.state != StateCooldown {
		return 0
	}
	if d := c.cooldownUntil.Sub(c.now()); d > 0 {
		return d
	}
	return 0
}

// IsCanceled reports whether err is the result of a cancelled or superseded
// Call.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
