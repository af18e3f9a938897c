package models

import (
	"sync"

	"github.com/moyoez/shareintent-go/api/notifyhub"
)

var (
	notifyHubMu sync.RWMutex
	notifyHub   *notifyhub.Hub
)

// SetNotifyHub sets the hub for WebSocket snapshot broadcast. A nil hub
// disables the notify-ws route.
func SetNotifyHub(h *notifyhub.Hub) {
	notifyHubMu.Lock()
	defer notifyHubMu.Unlock()
	notifyHub = h
}

// GetNotifyHub returns the notify WebSocket hub, or nil if not set.
func GetNotifyHub() *notifyhub.Hub {
	notifyHubMu.RLock()
	defer notifyHubMu.RUnlock()
	return notifyHub
}
