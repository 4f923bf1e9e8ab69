package chatview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/internal/realtime"
	"book_story_service/internal/session"
	"book_story_service/pkg"
	"book_story_service/pkg/logger"

	"go.uber.org/zap"
)

// State lifecycle of the controller
type State string

const (
	// StateUninitialized no identity seen yet
	StateUninitialized State = "uninitialized"
	// StateConnecting channel opened, history and subscription in flight
	StateConnecting State = "connecting"
	// StateSubscribed live
	StateSubscribed State = "subscribed"
	// StateClosed signed out, closed, or the channel errored
	StateClosed State = "closed"
)

const (
	trackTimeout   = 5 * time.Second
	historyTimeout = 10 * time.Second
)

var (
	// ErrEmptyMessage input is blank after trimming; nothing was written
	ErrEmptyMessage = domain.ErrEmptyMessage
	// ErrNotConnected send without a live session
	ErrNotConnected = errors.New("chat is not connected")
)

// MessageStore persistent, ordered message log
type MessageStore interface {
	Insert(ctx context.Context, content, sender string) error
	ListAll(ctx context.Context) ([]domain.ChatMessage, error)
}

// SessionProvider source of the signed in identity
type SessionProvider interface {
	CurrentIdentity() (session.Identity, bool)
	OnIdentityChange(handler session.ChangeHandler) (cancel func())
}

// RenderedMessage a message as displayed
type RenderedMessage struct {
	domain.ChatMessage
	Mine  bool
	Label string
}

// View immutable snapshot handed to the change callback
type View struct {
	State       State
	Identity    string
	Messages    []RenderedMessage
	OnlineCount int
	Input       string
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier receives user facing errors
func WithNotifier(fn func(error)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithOnChange receives a View after every change
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnScroll is called whenever the number of cached messages changes
func WithOnScroll(fn func()) Option {
	return func(c *Controller) { c.onScroll = fn }
}

// WithOpener replaces the dialer based channel factory
func WithOpener(open realtime.Opener) Option {
	return func(c *Controller) { c.open = open }
}

// Controller keeps the message cache and online count of the chat view for one identity.
// Callbacks run outside the controller lock, one at a time, and must not call
// SetIdentity, SetInput or Send synchronously.
type Controller struct {
	store MessageStore
	open  realtime.Opener
	room  string

	notify   func(error)
	onChange func(View)
	onScroll func()

	mu         sync.Mutex
	state      State
	identity   string
	generation uint64
	channel    realtime.Subscription
	messages   []domain.ChatMessage
	seen       map[string]struct{}
	pending    []domain.ChatMessage
	loaded     bool
	online     int
	input      string
	version    uint64

	emitMu     sync.Mutex
	emitted    uint64
	emittedLen int
}

// NewController create Controller for room
func NewController(store MessageStore, dial realtime.Dialer, room string, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		open:  realtime.DialOpener(dial),
		room:  room,
		state: StateUninitialized,
		seen:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind follows the provider: every identity change reopens the chat for that identity
func (c *Controller) Bind(ctx context.Context, provider SessionProvider) (unbind func()) {
	cancel := provider.OnIdentityChange(func(id session.Identity, ok bool) {
		email := ""
		if ok {
			email = id.Email
		}
		_ = c.SetIdentity(ctx, email)
	})
	if id, ok := provider.CurrentIdentity(); ok {
		_ = c.SetIdentity(ctx, id.Email)
	}
	return cancel
}

// SetIdentity closes the current channel and, for a non empty identity, opens a new one,
// subscribes and loads the history. The same live identity is a no-op.
func (c *Controller) SetIdentity(ctx context.Context, identity string) error {
	return c.switchTo(ctx, identity, false)
}

// Reconnect reopens the channel for the current identity
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()
	if identity == "" {
		return ErrNotConnected
	}
	return c.switchTo(ctx, identity, true)
}

// Close releases the channel; the controller can be reopened with SetIdentity
func (c *Controller) Close() {
	_ = c.switchTo(context.Background(), "", true)
}

func (c *Controller) switchTo(ctx context.Context, identity string, force bool) error {
	c.mu.Lock()
	live := c.state == StateConnecting || c.state == StateSubscribed
	if !force && identity == c.identity && (live || identity == "") {
		c.mu.Unlock()
		return nil
	}

	old := c.channel
	c.channel = nil
	c.generation++
	gen := c.generation
	c.identity = identity
	c.messages = nil
	c.seen = make(map[string]struct{})
	c.pending = nil
	c.loaded = false
	c.online = 0
	switch {
	case identity != "":
		c.state = StateConnecting
	case c.state != StateUninitialized:
		c.state = StateClosed
	}
	view, version := c.commitLocked()
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	c.emit(view, version)

	if identity == "" {
		return nil
	}
	return c.connect(ctx, gen, identity)
}

func (c *Controller) connect(ctx context.Context, gen uint64, identity string) error {
	sub, err := c.open(ctx, c.room, identity)
	if err != nil {
		c.markClosed(gen)
		c.report(err)
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	c.channel = sub
	c.mu.Unlock()

	sub.Messages().OnInserted(func(m domain.ChatMessage) { c.handleInserted(gen, m) })
	sub.Presence().OnPresenceSync(func(s realtime.Snapshot) { c.handlePresence(gen, s) })
	// a failed join reaches handleStatus as StatusErrored, which reports it
	return sub.Subscribe(ctx, func(st realtime.Status, err error) { c.handleStatus(gen, sub, st, err) })
}

// loadHistory runs once the join is confirmed, so every later commit arrives live.
// Live events seen meanwhile are merged without duplicates. It reports whether
// the controller went live.
func (c *Controller) loadHistory(ctx context.Context, gen uint64) bool {
	history, err := c.store.ListAll(ctx)

	c.mu.Lock()
	if gen != c.generation || c.state != StateConnecting {
		c.mu.Unlock()
		return false
	}
	if err == nil {
		for _, m := range history {
			c.appendLocked(m)
		}
	}
	for _, m := range c.pending {
		c.appendLocked(m)
	}
	c.pending = nil
	c.loaded = true
	c.state = StateSubscribed
	view, version := c.commitLocked()
	c.mu.Unlock()

	c.emit(view, version)
	if err != nil {
		c.report(fmt.Errorf("load history: %w", err))
	}
	return true
}

func (c *Controller) handleInserted(gen uint64, m domain.ChatMessage) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if !c.loaded {
		c.pending = append(c.pending, m)
		c.mu.Unlock()
		return
	}
	if !c.appendLocked(m) {
		c.mu.Unlock()
		return
	}
	view, version := c.commitLocked()
	c.mu.Unlock()
	c.emit(view, version)
}

func (c *Controller) handlePresence(gen uint64, s realtime.Snapshot) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.online = len(s.Keys)
	view, version := c.commitLocked()
	c.mu.Unlock()
	c.emit(view, version)
}

func (c *Controller) handleStatus(gen uint64, sub realtime.Subscription, st realtime.Status, err error) {
	switch st {
	case realtime.StatusSubscribed:
		if c.stale(gen) {
			return
		}
		// off the dispatch goroutine so live events keep flowing into pending
		go c.finishSubscribe(gen, sub)
	case realtime.StatusErrored:
		if c.markClosed(gen) {
			logger.Log.Warn("realtime channel errored", zap.Error(err))
			c.report(fmt.Errorf("realtime: %w", err))
		}
	}
}

// finishSubscribe loads the history, then tracks presence
func (c *Controller) finishSubscribe(gen uint64, sub realtime.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if !c.loadHistory(ctx, gen) {
		return
	}

	trackCtx, trackCancel := context.WithTimeout(context.Background(), trackTimeout)
	defer trackCancel()
	if err := sub.Presence().Track(trackCtx, domain.PresenceMeta{OnlineAt: time.Now().UTC()}); err != nil && !c.stale(gen) {
		c.report(fmt.Errorf("track presence: %w", err))
	}
}

// markClosed reports whether gen was current
func (c *Controller) markClosed(gen uint64) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state = StateClosed
	view, version := c.commitLocked()
	c.mu.Unlock()
	c.emit(view, version)
	return true
}

func (c *Controller) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation
}

// SetInput replaces the pending input text
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	if c.input == text {
		c.mu.Unlock()
		return
	}
	c.input = text
	view, version := c.commitLocked()
	c.mu.Unlock()
	c.emit(view, version)
}

// Send writes the input to the store. Blank input is rejected without a write.
// The input is cleared on success; the message itself shows up through the channel.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	content, identity, state := c.input, c.identity, c.state
	c.mu.Unlock()

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if identity == "" || (state != StateConnecting && state != StateSubscribed) {
		c.report(ErrNotConnected)
		return ErrNotConnected
	}

	if err := c.store.Insert(ctx, trimmed, identity); err != nil {
		err = fmt.Errorf("send message: %w", err)
		c.report(err)
		return err
	}

	c.mu.Lock()
	if c.input != content {
		c.mu.Unlock()
		return nil
	}
	c.input = ""
	view, version := c.commitLocked()
	c.mu.Unlock()
	c.emit(view, version)
	return nil
}

// SendText sets the input to text and sends it
func (c *Controller) SendText(ctx context.Context, text string) error {
	c.SetInput(text)
	return c.Send(ctx)
}

// State current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity the identity the controller is bound to
func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// OnlineCount size of the last presence snapshot
func (c *Controller) OnlineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Input pending input text
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Rendered cached messages as displayed
func (c *Controller) Rendered() []RenderedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

// View current snapshot
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) appendLocked(m domain.ChatMessage) bool {
	key := m.Key()
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.messages = append(c.messages, m)
	return true
}

func (c *Controller) renderLocked() []RenderedMessage {
	out := make([]RenderedMessage, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, RenderedMessage{
			ChatMessage: m,
			Mine:        c.identity != "" && m.SenderIdentity == c.identity,
			Label:       pkg.EmailName(m.SenderIdentity),
		})
	}
	return out
}

func (c *Controller) viewLocked() View {
	return View{
		State:       c.state,
		Identity:    c.identity,
		Messages:    c.renderLocked(),
		OnlineCount: c.online,
		Input:       c.input,
	}
}

func (c *Controller) commitLocked() (View, uint64) {
	c.version++
	if c.onChange == nil && c.onScroll == nil {
		return View{}, c.version
	}
	return c.viewLocked(), c.version
}

// emit drops views older than one already delivered
func (c *Controller) emit(view View, version uint64) {
	if c.onChange == nil && c.onScroll == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if version <= c.emitted {
		return
	}
	c.emitted = version

	if c.onChange != nil {
		safeCall(func() { c.onChange(view) })
	}
	if n := len(view.Messages); n != c.emittedLen {
		c.emittedLen = n
		if c.onScroll != nil {
			safeCall(c.onScroll)
		}
	}
}

func (c *Controller) report(err error) {
	if err == nil || c.notify == nil {
		return
	}
	safeCall(func() { c.notify(err) })
}

func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("chat view callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
