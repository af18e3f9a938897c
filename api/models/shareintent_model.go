package models

import "github.com/moyoez/shareintent-go/types"

// AppStateRequest is the body of POST /app-state.
type AppStateRequest struct {
	State types.AppState `json:"state" binding:"required,oneof=active inactive background"`
}

// URLRequest is the body of POST /url. An empty url clears the current link.
type URLRequest struct {
	URL string `json:"url"`
}

// DonateRequest is the body of POST /donate.
type DonateRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	ImageURL       string `json:"imageURL"`
	Content        string `json:"content"`
}

func (r DonateRequest) Options() types.DonateSendMessageOptions {
	return types.DonateSendMessageOptions{
		ConversationID: r.ConversationID,
		Name:           r.Name,
		ImageURL:       r.ImageURL,
		Content:        r.Content,
	}
}

// DirectShareTargetsRequest is the body of POST /direct-share-targets.
type DirectShareTargetsRequest struct {
	Contacts []types.DirectShareContact `json:"contacts"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Running         bool                  `json:"running"`
	NotifyWSEnabled bool                  `json:"notify_ws_enabled"`
	IsReady         bool                  `json:"isReady"`
	State           types.ControllerState `json:"state"`
	HasShareIntent  bool                  `json:"hasShareIntent"`
	Pending         bool                  `json:"pending"`
	Error           *string               `json:"error"`
	ShareKey        string                `json:"shareKey"`
}
