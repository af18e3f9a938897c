package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

// MaxNotifyFiles is the maximum number of files to include in notify payload (truncate if exceeded)
const MaxNotifyFiles = 20

// MaxNotifyTextLen bounds the shared text copied into a notification message.
const MaxNotifyTextLen = 512

// MaxNotifyPathLen bounds urls, titles and file paths in a notification.
const MaxNotifyPathLen = 256

// MaxNotifyFieldLen bounds short fields such as file names and mime types.
const MaxNotifyFieldLen = 128

// Configuration for Unix Domain Socket notification
var (
	// DefaultUnixSocketPath is the default Unix socket path for IPC
	DefaultUnixSocketPath = "/tmp/shareintent-notify.sock"
	// UnixSocketTimeout is the timeout for Unix socket operations
	UnixSocketTimeout = 3 * time.Second
	UseNotify         = true
)

// SetUseNotify sets whether to use notify
func SetUseNotify(use bool) {
	UseNotify = use
}

// SendNotification sends notification via Unix Domain Socket. The frame is a
// 4-byte little-endian length followed by the JSON payload; the listener may
// answer with a JSON object carrying "error".
func SendNotification(notification *types.Notification, socketPath string) error {
	if !UseNotify {
		return nil
	}
	if socketPath == "" {
		socketPath = DefaultUnixSocketPath
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", socketPath)
	}

	var payload []byte
	var err error
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	} else {
		payload = []byte("{}")
	}

	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set write deadline: %v", err)
	}

	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	tool.DefaultLogger.Debugf("Sending notification to Unix socket (len=%d)", len(payload))
	for off := 0; off < len(payload); {
		chunkEnd := min(off+NotifyWriteChunkSize, len(payload))
		nw, err := conn.Write(payload[off:chunkEnd])
		if err != nil {
			return fmt.Errorf("failed to write payload to Unix socket: %v", err)
		}
		off += nw
	}

	if err := conn.SetReadDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set read deadline: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}

	var response map[string]any
	if n > 0 {
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("server returned error: %s", errMsg)
		}
	}

	if notification != nil {
		tool.DefaultLogger.Infof("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	} else {
		tool.DefaultLogger.Infof("[UnixSocket] Notification sent")
	}
	return nil
}

// ShareIntentNotification describes a newly received intent. Every field is
// bounded so the encoded notification fits in one socket frame.
func ShareIntentNotification(si types.ShareIntent) *types.Notification {
	n := &types.Notification{
		Type:       types.NotifyTypeShareIntent,
		IsTextOnly: si.Type == types.IntentTypeText,
		Data: map[string]any{
			"type": string(si.Type),
		},
	}
	switch si.Type {
	case types.IntentTypeText:
		n.Title = "Text Received"
	case types.IntentTypeWebURL:
		n.Title = "Link Received"
	case types.IntentTypeMedia:
		n.Title = "Media Received"
	default:
		n.Title = "Files Received"
	}
	if title := si.Meta.Title(); title != "" {
		n.Data["title"] = truncate(title, MaxNotifyPathLen)
	}
	if si.ConversationID != nil {
		n.Data["conversationId"] = truncate(*si.ConversationID, MaxNotifyFieldLen)
	}
	if si.WebURL != nil {
		webURL := truncate(*si.WebURL, MaxNotifyPathLen)
		n.Data["webUrl"] = webURL
		n.Message = webURL
	}
	if si.Text != nil {
		text := truncate(*si.Text, MaxNotifyTextLen)
		n.Data["text"] = text
		if n.Message == "" {
			n.Message = text
		}
	}
	if len(si.Files) > 0 {
		files := boundedFiles(si.Files[:min(len(si.Files), MaxNotifyFiles)])
		n.Data["files"] = files
		n.Data["totalFiles"] = len(si.Files)
		n.Message = fmt.Sprintf("%d file(s) shared", len(si.Files))
		// escaped control characters can still blow the frame; shed files until it fits
		for len(files) > 0 {
			payload, err := sonic.Marshal(n)
			if err == nil && len(payload) <= NotifyWriteChunkSize {
				break
			}
			files = files[:len(files)/2]
			n.Data["files"] = files
		}
	}
	return n
}

func boundedFiles(in []types.ShareIntentFile) []types.ShareIntentFile {
	out := make([]types.ShareIntentFile, len(in))
	for i, f := range in {
		f.Path = truncate(f.Path, MaxNotifyPathLen)
		f.FileName = truncatePtr(f.FileName, MaxNotifyFieldLen)
		f.MimeType = truncatePtr(f.MimeType, MaxNotifyFieldLen)
		out[i] = f
	}
	return out
}

// ResetNotification reports that the held intent was cleared.
func ResetNotification() *types.Notification {
	return &types.Notification{
		Type:    types.NotifyTypeShareIntentReset,
		Title:   "Share Intent Cleared",
		Message: "The shared content was consumed",
	}
}

// ErrorNotification reports a fetch or parse failure.
func ErrorNotification(message string) *types.Notification {
	return &types.Notification{
		Type:    types.NotifyTypeShareIntentError,
		Title:   "Share Intent Error",
		Message: truncate(message, MaxNotifyTextLen),
		Data: map[string]any{
			"error": truncate(message, MaxNotifyTextLen),
		},
	}
}

// SnapshotNotification wraps a full controller snapshot for WebSocket clients.
func SnapshotNotification(snap types.Snapshot) *types.Notification {
	return &types.Notification{
		Type: types.NotifyTypeSnapshot,
		Data: map[string]any{
			"snapshot": snap,
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func truncatePtr(s *string, n int) *string {
	if s == nil {
		return nil
	}
	t := truncate(*s, n)
	return &t
}
