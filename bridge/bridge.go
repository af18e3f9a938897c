// Package bridge defines the contract between the share-intent core and the
// native module that owns the OS integration, plus in-process
// implementations of it.
package bridge

import (
	"context"
	"errors"

	"github.com/moyoez/shareintent-go/types"
)

var (
	// ErrUnavailable is returned by every operation when no native module is present.
	ErrUnavailable = errors.New("share intent native module is not available")
	// ErrUnsupported is returned for operations the current platform does not offer.
	ErrUnsupported = errors.New("operation not supported on this platform")
)

// Bridge is the narrow request/response surface of the native module.
// Fetch results never come back as return values: they arrive later as
// onChange / onError events on a Subscription.
type Bridge interface {
	// GetShareIntent asks the native layer to emit what was shared. urlHint
	// is the share-extension deep link on iOS and "" on Android.
	GetShareIntent(ctx context.Context, urlHint string) error
	// ClearShareIntent drops the native copy stored under key.
	ClearShareIntent(key string) error
	// HasShareIntent reports whether an intent is waiting to be fetched.
	HasShareIntent(key string) (bool, error)
	DonateSendMessage(ctx context.Context, conversationID, name, imageURL, content string) error
	PublishDirectShareTargets(ctx context.Context, contacts []types.DirectShareContact) (bool, error)
	ReportShortcutUsed(id string) error
	RemoveShortcut(id string) error
	RemoveAllShortcuts() error
	// Subscribe opens an event stream that lives until Close.
	Subscribe() (*Subscription, error)
}
