package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/shareintent-go/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// HandleQRCode returns a PNG QR code of the held intent's webUrl, or its text
// when there is no link, so shared content can be handed to another device.
// GET ?size=200x200
func (ctl *ShareIntentController) HandleQRCode(c *gin.Context) {
	si := ctl.ctrl.ShareIntent()
	var data string
	switch {
	case si.WebURL != nil:
		data = *si.WebURL
	case si.Text != nil:
		data = *si.Text
	}
	if data == "" {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No shared text or link to encode"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
