package auth

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/authmodel"
)

// Unsubscribe removes a previously registered observer. Safe to call more
// than once and safe to call from inside a notification.
type Unsubscribe func()

// observers is the subscription registry for the two notification channels:
// auth-state changes (login, scope change, logout) and token refreshes.
// Callbacks are copied out under the lock before being invoked, so an
// observer may unsubscribe itself or another observer mid-notification
// without crashing or skipping the rest of the fan-out.
type observers struct {
	mu        sync.Mutex
	nextID    int
	authState map[int]func(*authmodel.User)
	tokens    map[int]func(authmodel.Tokens)
}

func newObservers() *observers {
	return &observers{
		authState: make(map[int]func(*authmodel.User)),
		tokens:    make(map[int]func(authmodel.Tokens)),
	}
}

func (o *observers) onAuthState(fn func(*authmodel.User)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.authState[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.authState, id)
	}
}

func (o *observers) onTokens(fn func(authmodel.Tokens)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.tokens[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.tokens, id)
	}
}

func (o *observers) notifyAuthState(user *authmodel.User) {
	o.mu.Lock()
	callbacks := make([]func(*authmodel.User), 0, len(o.authState))
	for _, fn := range o.authState {
		callbacks = append(callbacks, fn)
	}
	o.mu.Unlock()
	for _, fn := range callbacks {
		fn(user)
	}
}

func (o *observers) notifyTokens(tokens authmodel.Tokens) {
	o.mu.Lock()
	callbacks := make([]func(authmodel.Tokens), 0, len(o.tokens))
	for _, fn := range o.tokens {
		callbacks = append(callbacks, fn)
	}
	o.mu.Unlock()
	for _, fn := range callbacks {
		fn(tokens)
	}
}
