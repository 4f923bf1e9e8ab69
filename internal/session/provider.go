package session

import (
	"errors"
	"sync"
	"time"

	"book_story_service/pkg/logger"
	"book_story_service/pkg/token"

	"go.uber.org/zap"
)

// ErrNoEmail the token carries no email claim
var ErrNoEmail = errors.New("token has no email")

// Identity the signed in member as seen by the client
type Identity struct {
	MemberID  string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// ChangeHandler is called with the new identity; ok is false after sign out
type ChangeHandler func(identity Identity, ok bool)

// Provider holds the current session of a client and notifies on every change,
// including a token refresh for the same member.
type Provider struct {
	mu       sync.Mutex
	current  *Identity
	handlers map[int]ChangeHandler
	nextID   int
}

// NewProvider create an empty (signed out) Provider
func NewProvider() *Provider {
	return &Provider{handlers: make(map[int]ChangeHandler)}
}

// SignIn replaces the session with the one carried by tokenStr.
// The signature is left to the server.
func (p *Provider) SignIn(tokenStr string) (Identity, error) {
	claims, err := token.ReadClaims(tokenStr)
	if err != nil {
		return Identity{}, err
	}
	if claims.Email == "" {
		return Identity{}, ErrNoEmail
	}

	id := Identity{
		MemberID: claims.MemberID,
		Email:    claims.Email,
		Token:    tokenStr,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}

	p.mu.Lock()
	p.current = &id
	handlers := p.snapshotLocked()
	p.mu.Unlock()

	logger.Log.Debug("session signed in", zap.String("email", id.Email))
	notify(handlers, id, true)
	return id, nil
}

// Refresh swaps the token; identical to SignIn but named for intent
func (p *Provider) Refresh(tokenStr string) (Identity, error) {
	return p.SignIn(tokenStr)
}

// SignOut clears the session
func (p *Provider) SignOut() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current = nil
	handlers := p.snapshotLocked()
	p.mu.Unlock()

	notify(handlers, Identity{}, false)
}

// CurrentIdentity the signed in identity, if any
func (p *Provider) CurrentIdentity() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Identity{}, false
	}
	return *p.current, true
}

// Token current raw token, empty when signed out
func (p *Provider) Token() string {
	id, _ := p.CurrentIdentity()
	return id.Token
}

// OnIdentityChange registers handler; the returned func unregisters it
func (p *Provider) OnIdentityChange(handler ChangeHandler) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.handlers, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) snapshotLocked() []ChangeHandler {
	handlers := make([]ChangeHandler, 0, len(p.handlers))
	for i := 0; i < p.nextID; i++ {
		if h, ok := p.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	return handlers
}

func notify(handlers []ChangeHandler, id Identity, ok bool) {
	for _, h := range handlers {
		h(id, ok)
	}
}
