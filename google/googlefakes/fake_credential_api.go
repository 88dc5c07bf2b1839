// Package googlefakes provides a scriptable native credential API for tests.
package googlefakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/google"
)

// FakeCredentialAPI scripts the native Google SDK collaborator.
type FakeCredentialAPI struct {
	mu sync.Mutex

	AvailableResult bool

	OneTapCredential *google.Credential
	OneTapErr        error
	OneTapCalls      int

	PickerCredential *google.Credential
	PickerErr        error
	PickerCalls      int
	PickerScopes     [][]string

	SignOutErr   error
	SignOutCalls int

	LastCredential *google.Credential
	LastErr        error
}

// NewFakeCredentialAPI creates an available fake API.
func NewFakeCredentialAPI() *FakeCredentialAPI {
	return &FakeCredentialAPI{AvailableResult: true}
}

// Available implements google.CredentialAPI.
func (f *FakeCredentialAPI) Available() bool {
	return f.AvailableResult
}

// OneTap implements google.CredentialAPI.
func (f *FakeCredentialAPI) OneTap(_ context.Context, _ string) (*google.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OneTapCalls++
	if f.OneTapErr != nil {
		return nil, f.OneTapErr
	}
	return f.OneTapCredential, nil
}

// Picker implements google.CredentialAPI.
func (f *FakeCredentialAPI) Picker(_ context.Context, scopes []string, _ string) (*google.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PickerCalls++
	f.PickerScopes = append(f.PickerScopes, append([]string{}, scopes...))
	if f.PickerErr != nil {
		return nil, f.PickerErr
	}
	return f.PickerCredential, nil
}

// SignOut implements google.CredentialAPI.
func (f *FakeCredentialAPI) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignOutCalls++
	return f.SignOutErr
}

// LastSignedIn implements google.CredentialAPI.
func (f *FakeCredentialAPI) LastSignedIn(_ context.Context) (*google.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LastErr != nil {
		return nil, f.LastErr
	}
	return f.LastCredential, nil
}

var _ google.CredentialAPI = (*FakeCredentialAPI)(nil)
