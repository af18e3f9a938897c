package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/shareintent-go/bridge"
	"github.com/moyoez/shareintent-go/lifecycle"
	"github.com/moyoez/shareintent-go/types"
)

// setupRouter creates a test router over a controller backed by a local bridge.
func setupRouter(t *testing.T, opts types.ShareIntentOptions) (*gin.Engine, *bridge.Local, *lifecycle.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := bridge.NewDirStore(t.TempDir())
	require.NoError(t, err)
	local, err := bridge.NewLocal(opts.ResolvedPlatform(), store)
	require.NoError(t, err)
	ctrl := lifecycle.New(local, opts)
	t.Cleanup(func() {
		ctrl.Close()
		_ = local.Close()
	})
	require.NoError(t, ctrl.Start())

	ctl := NewShareIntentController(ctrl)
	router := gin.New()
	v1 := router.Group("/api/shareintent/v1")
	{
		v1.GET("/intent", ctl.HandleGetIntent)
		v1.GET("/status", ctl.HandleStatus)
		v1.POST("/refresh", ctl.HandleRefresh)
		v1.POST("/reset", ctl.HandleReset)
		v1.POST("/app-state", ctl.HandleAppState)
		v1.POST("/url", ctl.HandleURL)
		v1.POST("/donate", ctl.HandleDonate)
		v1.POST("/direct-share-targets", ctl.HandlePublishDirectShareTargets)
		v1.POST("/shortcuts/:id/used", ctl.HandleShortcutUsed)
		v1.DELETE("/shortcuts/:id", ctl.HandleRemoveShortcut)
		v1.DELETE("/shortcuts", ctl.HandleRemoveAllShortcuts)
		v1.GET("/qrcode", ctl.HandleQRCode)
	}
	return router, local, ctrl
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func waitForIntent(t *testing.T, ctrl *lifecycle.Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return ctrl.Snapshot().HasShareIntent }, 2*time.Second, 5*time.Millisecond)
}

func TestGetIntentAndStatus(t *testing.T) {
	router, local, ctrl := setupRouter(t, types.ShareIntentOptions{Scheme: "myapp"})

	local.Push(types.AndroidPayload{"text": "see https://example.com", "type": "text"})
	waitForIntent(t, ctrl)

	w := perform(router, http.MethodGet, "/api/shareintent/v1/intent", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, true, snap["hasShareIntent"])
	si := snap["shareIntent"].(map[string]any)
	assert.Equal(t, "weburl", si["type"])
	assert.Equal(t, "https://example.com", si["webUrl"])

	w = perform(router, http.MethodGet, "/api/shareintent/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["isReady"])
	assert.Equal(t, "myappShareKey", status["shareKey"])
}

func TestReset(t *testing.T) {
	router, local, ctrl := setupRouter(t, types.ShareIntentOptions{})

	w := perform(router, http.MethodPost, "/api/shareintent/v1/reset?clearNative=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	local.Push(types.AndroidPayload{"text": "hi"})
	waitForIntent(t, ctrl)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/reset?clearNative=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ctrl.Snapshot().HasShareIntent)
}

func TestAppStateAndURL(t *testing.T) {
	router, local, ctrl := setupRouter(t, types.ShareIntentOptions{})

	w := perform(router, http.MethodPost, "/api/shareintent/v1/app-state", `{"state":"asleep"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = perform(router, http.MethodPost, "/api/shareintent/v1/app-state", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	local.Push(types.AndroidPayload{"text": "hi"})
	waitForIntent(t, ctrl)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/app-state", `{"state":"background"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ctrl.Snapshot().HasShareIntent)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/url", `{"url":"myapp://home"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/refresh", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestDonateAndShortcuts(t *testing.T) {
	router, local, _ := setupRouter(t, types.ShareIntentOptions{})

	w := perform(router, http.MethodPost, "/api/shareintent/v1/donate", `{"conversationId":"c1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/donate", `{"conversationId":"c1","name":"Alice","content":"hey"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, local.RecentContacts(), 1)
	assert.Equal(t, "Alice", local.RecentContacts()[0].Name)

	w = perform(router, http.MethodPost, "/api/shareintent/v1/direct-share-targets", `{"contacts":[{"id":"a","name":"A"},{"id":"","name":"skipped"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"published":true}}`, w.Body.String())

	assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/api/shareintent/v1/shortcuts/a/used", "").Code)
	assert.Equal(t, 1, local.ShortcutUses("a"))
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodPost, "/api/shareintent/v1/shortcuts/zzz/used", "").Code)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodDelete, "/api/shareintent/v1/shortcuts/a", "").Code)
	assert.Empty(t, local.Shortcuts())
	assert.Equal(t, http.StatusOK, perform(router, http.MethodDelete, "/api/shareintent/v1/shortcuts", "").Code)
}

func TestShortcutsUnsupportedOnIOS(t *testing.T) {
	router, _, _ := setupRouter(t, types.ShareIntentOptions{Platform: types.PlatformIOS})

	w := perform(router, http.MethodPost, "/api/shareintent/v1/direct-share-targets", `{"contacts":[{"id":"a","name":"A"}]}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, http.StatusNotImplemented, perform(router, http.MethodDelete, "/api/shareintent/v1/shortcuts", "").Code)
}

func TestDisabledController(t *testing.T) {
	disabled := true
	router, _, _ := setupRouter(t, types.ShareIntentOptions{Disabled: &disabled})

	w := perform(router, http.MethodPost, "/api/shareintent/v1/donate", `{"conversationId":"c1","name":"Alice"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQRCode(t *testing.T) {
	router, local, ctrl := setupRouter(t, types.ShareIntentOptions{})

	w := perform(router, http.MethodGet, "/api/shareintent/v1/qrcode", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	local.Push(types.AndroidPayload{"text": "plain text to hand over"})
	waitForIntent(t, ctrl)

	w = perform(router, http.MethodGet, "/api/shareintent/v1/qrcode?size=64x64", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
}

func TestParseSize(t *testing.T) {
	cases := map[string]int{
		"":        0,
		"200":     200,
		"300x300": 300,
		" 64 x64": 64,
		"abc":     0,
		"-5":      0,
		"x200":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseSize(in), in)
	}
}
