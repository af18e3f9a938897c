package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareintent-go/api/models"
	"github.com/moyoez/shareintent-go/tool"
)

// POST /api/shareintent/v1/donate
func (ctl *ShareIntentController) HandleDonate(c *gin.Context) {
	var req models.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("conversationId and name are required"))
		return
	}
	if err := ctl.ctrl.DonateSendMessage(c.Request.Context(), req.Options()); err != nil {
		c.JSON(statusFor(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// POST /api/shareintent/v1/direct-share-targets
func (ctl *ShareIntentController) HandlePublishDirectShareTargets(c *gin.Context) {
	var req models.DirectShareTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	published, err := ctl.ctrl.PublishDirectShareTargets(c.Request.Context(), req.Contacts)
	if err != nil {
		c.JSON(statusFor(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"published": published}))
}

// POST /api/shareintent/v1/shortcuts/:id/used
func (ctl *ShareIntentController) HandleShortcutUsed(c *gin.Context) {
	if err := ctl.ctrl.ReportShortcutUsed(c.Param("id")); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusNotFound
		}
		c.JSON(status, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// DELETE /api/shareintent/v1/shortcuts/:id
func (ctl *ShareIntentController) HandleRemoveShortcut(c *gin.Context) {
	if err := ctl.ctrl.RemoveShortcut(c.Param("id")); err != nil {
		c.JSON(statusFor(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// DELETE /api/shareintent/v1/shortcuts
func (ctl *ShareIntentController) HandleRemoveAllShortcuts(c *gin.Context) {
	if err := ctl.ctrl.RemoveAllShortcuts(); err != nil {
		c.JSON(statusFor(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
