// Package storagefakes provides a recording storage adapter for tests.
package storagefakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/storage"
)

// FakeAdapter is an in-memory adapter that records every call and supports
// injected failures.
type FakeAdapter struct {
	mu     sync.Mutex
	values map[string]string

	SaveErr   error
	LoadErr   error
	RemoveErr error

	SaveCalls   []string
	RemoveCalls []string
}

// NewFakeAdapter creates an empty fake adapter.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{values: map[string]string{}}
}

// Save implements storage.Adapter.
func (f *FakeAdapter) Save(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveCalls = append(f.SaveCalls, key)
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.values[key] = value
	return nil
}

// Load implements storage.Adapter.
func (f *FakeAdapter) Load(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadErr != nil {
		return "", false, f.LoadErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

// Remove implements storage.Adapter.
func (f *FakeAdapter) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RemoveCalls = append(f.RemoveCalls, key)
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	delete(f.values, key)
	return nil
}

// Set seeds a value directly, bypassing call recording.
func (f *FakeAdapter) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

// Get reads a value directly, bypassing call recording.
func (f *FakeAdapter) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	return value, ok
}

// Len returns how many keys are stored.
func (f *FakeAdapter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

var _ storage.Adapter = (*FakeAdapter)(nil)
