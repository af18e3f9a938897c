package lifecycle

import (
	"context"
	"fmt"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// DonateSendMessage donates a conversation for Siri suggestions (iOS) or
// Direct Share targets (Android). The outcome also arrives as onDonate.
func (c *Controller) DonateSendMessage(ctx context.Context, opts types.DonateSendMessageOptions) error {
	if c.disabled() {
		return ErrDisabled
	}
	if opts.ConversationID == "" || opts.Name == "" {
		tool.DefaultLogger.Errorf("[shareintent] donateSendMessage requires conversationId and name")
		return fmt.Errorf("donateSendMessage requires conversationId and name")
	}
	if err := c.bridge.DonateSendMessage(ctx, opts.ConversationID, opts.Name, opts.ImageURL, opts.Content); err != nil {
		return fmt.Errorf("failed to donate conversation %s: %w", opts.ConversationID, err)
	}
	c.debugf("donated conversation %s", opts.ConversationID)
	return nil
}

// PublishDirectShareTargets publishes contacts as Android direct share targets.
func (c *Controller) PublishDirectShareTargets(ctx context.Context, contacts []types.DirectShareContact) (bool, error) {
	if c.disabled() {
		return false, ErrDisabled
	}
	ok, err := c.bridge.PublishDirectShareTargets(ctx, contacts)
	if err != nil {
		return false, fmt.Errorf("failed to publish direct share targets: %w", err)
	}
	return ok, nil
}

func (c *Controller) ReportShortcutUsed(id string) error {
	if c.disabled() {
		return ErrDisabled
	}
	return c.bridge.ReportShortcutUsed(id)
}

func (c *Controller) RemoveShortcut(id string) error {
	if c.disabled() {
		return ErrDisabled
	}
	return c.bridge.RemoveShortcut(id)
}

func (c *Controller) RemoveAllShortcuts() error {
	if c.disabled() {
		return ErrDisabled
	}
	return c.bridge.RemoveAllShortcuts()
}
