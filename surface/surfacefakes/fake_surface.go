// Package surfacefakes provides a scriptable Surface for adapter tests.
package surfacefakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/surface"
)

// FakeSurface records presented URLs and replies with a scripted redirect or
// error. PresentFn, when set, overrides the scripted behavior entirely.
type FakeSurface struct {
	mu            sync.Mutex
	presentedURLs []string

	Redirect  *surface.Redirect
	Err       error
	PresentFn func(ctx context.Context, authURL string) (*surface.Redirect, error)
}

// NewFakeSurface creates an empty fake surface.
func NewFakeSurface() *FakeSurface {
	return &FakeSurface{}
}

// Present implements surface.Surface.
func (f *FakeSurface) Present(ctx context.Context, authURL string) (*surface.Redirect, error) {
	f.mu.Lock()
	f.presentedURLs = append(f.presentedURLs, authURL)
	f.mu.Unlock()

	if f.PresentFn != nil {
		return f.PresentFn(ctx, authURL)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Redirect, nil
}

// PresentedURLs returns every authorize URL presented so far.
func (f *FakeSurface) PresentedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.presentedURLs...)
}

// PresentCount returns how many times Present was called.
func (f *FakeSurface) PresentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.presentedURLs)
}

var _ surface.Surface = (*FakeSurface)(nil)
