package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-pos-frontend/internal/cart"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

// Session owns one cashier's cart, purchase flow and lookup screen state.
// It is created empty and dropped when it expires.
type Session struct {
	ID       string
	Cart     *cart.Cart
	Purchase *purchase.Controller

	mu       sync.Mutex
	product  *validation.Product
	code     string
	message  string
	lastSeen time.Time
}

// ShowProduct stores the result of a successful lookup.
func (s *Session) ShowProduct(code string, p *validation.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	s.product = p
	s.message = ""
}

// ShowMessage replaces the displayed product with a message (e.g. not found).
func (s *Session) ShowMessage(code, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	s.product = nil
	s.message = msg
}

// Flash sets a message without touching the displayed product.
func (s *Session) Flash(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// TakeProduct returns the displayed product and resets the lookup screen.
func (s *Session) TakeProduct() *validation.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.product
	s.product = nil
	s.code = ""
	s.message = ""
	return p
}

// Lookup is the lookup screen state.
type Lookup struct {
	Code    string
	Product *validation.Product
	Message string
}

func (s *Session) Lookup() Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Lookup{Code: s.code, Product: s.product, Message: s.message}
}

// ControllerFactory builds the purchase controller for a new session's cart.
type ControllerFactory func(c *cart.Cart) *purchase.Controller

// Registry holds live sessions by id.
type Registry struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	newController ControllerFactory
	ttl           time.Duration
	nowFunc       func() time.Time
	newID         func() string
}

// NewRegistry returns an empty registry. Sessions idle for longer than ttl
// are dropped by Sweep.
func NewRegistry(newController ControllerFactory, ttl time.Duration) *Registry {
	return &Registry{
		sessions:      map[string]*Session{},
		newController: newController,
		ttl:           ttl,
		nowFunc:       time.Now,
		newID:         uuid.NewString,
	}
}

// Create starts a new session with an empty cart.
func (r *Registry) Create() *Session {
	c := cart.New()
	s := &Session{
		ID:       r.newID(),
		Cart:     c,
		Purchase: r.newController(c),
	}
	r.mu.Lock()
	s.lastSeen = r.nowFunc()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.nowFunc()
	if now.Sub(s.lastSeen) > r.ttl {
		delete(r.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Delete ends a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	n := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
