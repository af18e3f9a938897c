package bridge

import (
	"context"

	"github.com/moyoez/shareintent-go/types"
)

// Unavailable stands in when the native module is absent, e.g. on an
// unsupported platform. Every operation fails with ErrUnavailable.
type Unavailable struct{}

var _ Bridge = Unavailable{}

func (Unavailable) GetShareIntent(context.Context, string) error { return ErrUnavailable }
func (Unavailable) ClearShareIntent(string) error { return ErrUnavailable }
func (Unavailable) HasShareIntent(string) (bool, error) { return false, ErrUnavailable }

func (Unavailable) DonateSendMessage(context.Context, string, string, string, string) error {
	return ErrUnavailable
}

func (Unavailable) PublishDirectShareTargets(context.Context, []types.DirectShareContact) (bool, error) {
	return false, ErrUnavailable
}

func (Unavailable) ReportShortcutUsed(string) error { return ErrUnavailable }
func (Unavailable) RemoveShortcut(string) error { return ErrUnavailable }
func (Unavailable) RemoveAllShortcuts() error { return ErrUnavailable }
func (Unavailable) Subscribe() (*Subscription, error) { return nil, ErrUnavailable }
