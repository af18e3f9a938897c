package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareintent-go/api/models"
	"github.com/moyoez/shareintent-go/bridge"
	"github.com/moyoez/shareintent-go/lifecycle"
	"github.com/moyoez/shareintent-go/tool"
)

// ShareIntentController exposes a lifecycle controller to the JS application.
type ShareIntentController struct {
	ctrl *lifecycle.Controller
}

func NewShareIntentController(ctrl *lifecycle.Controller) *ShareIntentController {
	return &ShareIntentController{ctrl: ctrl}
}

// statusFor maps controller and bridge errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrDisabled):
		return http.StatusConflict
	case errors.Is(err, bridge.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, bridge.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleGetIntent returns the current snapshot.
// GET /api/shareintent/v1/intent
func (ctl *ShareIntentController) HandleGetIntent(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.ctrl.Snapshot())
}

// HandleStatus reports readiness for the web UI.
// GET /api/shareintent/v1/status
func (ctl *ShareIntentController) HandleStatus(c *gin.Context) {
	snap := ctl.ctrl.Snapshot()
	c.JSON(http.StatusOK, models.StatusResponse{
		Running:         true,
		NotifyWSEnabled: models.GetNotifyHub() != nil,
		IsReady:         snap.IsReady,
		State:           snap.State,
		HasShareIntent:  snap.HasShareIntent,
		Pending:         snap.Pending,
		Error:           snap.Error,
		ShareKey:        ctl.ctrl.ShareExtensionKey(),
	})
}

// HandleRefresh asks the bridge for a fresh payload. The result arrives
// later through /intent or the notify socket.
// POST /api/shareintent/v1/refresh
func (ctl *ShareIntentController) HandleRefresh(c *gin.Context) {
	ctl.ctrl.Refresh()
	c.JSON(http.StatusAccepted, tool.FastReturnSuccess())
}

// HandleReset clears the held intent. clearNative defaults to true.
// POST /api/shareintent/v1/reset?clearNative=false
func (ctl *ShareIntentController) HandleReset(c *gin.Context) {
	clearNative := true
	if raw := c.Query("clearNative"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid clearNative: "+raw))
			return
		}
		clearNative = v
	}
	ctl.ctrl.Reset(clearNative)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctl.ctrl.Snapshot()))
}

// HandleAppState feeds an application lifecycle transition.
// POST /api/shareintent/v1/app-state
func (ctl *ShareIntentController) HandleAppState(c *gin.Context) {
	var req models.AppStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	ctl.ctrl.SetAppState(req.State)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleURL records the deep link the OS opened the app with.
// POST /api/shareintent/v1/url
func (ctl *ShareIntentController) HandleURL(c *gin.Context) {
	var req models.URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	ctl.ctrl.SetURL(req.URL)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
