// Package authfakes provides hand rolled provider adapter fakes for the auth
// service tests.
package authfakes

import (
	"context"

	"github.com/jrsteele09/go-auth-client/apple"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/google"
	"github.com/jrsteele09/go-auth-client/microsoft"
)

var (
	_ auth.GoogleAdapter    = (*FakeGoogle)(nil)
	_ auth.AppleAdapter     = (*FakeApple)(nil)
	_ auth.MicrosoftAdapter = (*FakeMicrosoft)(nil)
)

// FakeGoogle scripts the Google adapter. Per-call functions take precedence
// over the scripted result/error pair when set.
type FakeGoogle struct {
	Result    *google.Result
	Err       error
	Native    bool
	LastUser  *google.Result
	LastErr   error
	LoginFn   func(ctx context.Context, options authmodel.LoginOptions) (*google.Result, error)
	RefreshFn func(ctx context.Context, refreshToken string, scopes []string) (*google.Result, error)

	LoginCalls         int
	LoginOptions       []authmodel.LoginOptions
	RequestScopesCalls int
	RequestedScopes    [][]string
	RefreshCalls       int
	RefreshTokens      []string
	SignOutCalls       int
	LastSignedInCalls  int
}

func (f *FakeGoogle) Login(ctx context.Context, options authmodel.LoginOptions) (*google.Result, error) {
	f.LoginCalls++
	f.LoginOptions = append(f.LoginOptions, options)
	if f.LoginFn != nil {
		return f.LoginFn(ctx, options)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

func (f *FakeGoogle) RequestScopes(_ context.Context, _, requested []string) (*google.Result, error) {
	f.RequestScopesCalls++
	f.RequestedScopes = append(f.RequestedScopes, requested)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

func (f *FakeGoogle) Refresh(ctx context.Context, refreshToken string, scopes []string) (*google.Result, error) {
	f.RefreshCalls++
	f.RefreshTokens = append(f.RefreshTokens, refreshToken)
	if f.RefreshFn != nil {
		return f.RefreshFn(ctx, refreshToken, scopes)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

func (f *FakeGoogle) SignOut(context.Context) error {
	f.SignOutCalls++
	return nil
}

func (f *FakeGoogle) LastSignedIn(context.Context) (*google.Result, error) {
	f.LastSignedInCalls++
	if f.LastErr != nil {
		return nil, f.LastErr
	}
	return f.LastUser, nil
}

func (f *FakeGoogle) NativeAvailable() bool {
	return f.Native
}

// FakeApple scripts the Apple adapter.
type FakeApple struct {
	Result *apple.Result
	Err    error

	LoginCalls int
}

func (f *FakeApple) Login(context.Context, authmodel.LoginOptions) (*apple.Result, error) {
	f.LoginCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

func (f *FakeApple) Available() bool {
	return f.Result != nil || f.Err != nil
}

// FakeMicrosoft scripts the Microsoft adapter.
type FakeMicrosoft struct {
	Result    *microsoft.Result
	Err       error
	LoginFn   func(ctx context.Context, options authmodel.LoginOptions) (*microsoft.Result, error)
	RefreshFn func(ctx context.Context, refreshToken string, scopes []string) (*microsoft.Result, error)

	LoginCalls    int
	LoginOptions  []authmodel.LoginOptions
	RefreshCalls  int
	RefreshTokens []string
}

func (f *FakeMicrosoft) Login(ctx context.Context, options authmodel.LoginOptions) (*microsoft.Result, error) {
	f.LoginCalls++
	f.LoginOptions = append(f.LoginOptions, options)
	if f.LoginFn != nil {
		return f.LoginFn(ctx, options)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

func (f *FakeMicrosoft) Refresh(ctx context.Context, refreshToken string, scopes []string) (*microsoft.Result, error) {
	f.RefreshCalls++
	f.RefreshTokens = append(f.RefreshTokens, refreshToken)
	if f.RefreshFn != nil {
		return f.RefreshFn(ctx, refreshToken, scopes)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}
