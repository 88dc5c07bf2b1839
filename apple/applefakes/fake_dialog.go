// Package applefakes provides hand rolled fakes for the apple package tests.
package applefakes

import (
	"context"

	"github.com/jrsteele09/go-auth-client/apple"
)

var _ apple.Dialog = (*FakeDialog)(nil)

// FakeDialog scripts the native Apple ID dialog.
type FakeDialog struct {
	Credential *apple.Credential
	Err        error

	SignInCount int
	SheetUsed   []bool
}

func (f *FakeDialog) SignIn(_ context.Context, useSheet bool) (*apple.Credential, error) {
	f.SignInCount++
	f.SheetUsed = append(f.SheetUsed, useSheet)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Credential, nil
}
