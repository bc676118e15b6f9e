package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/realtime"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type ChannelHandler struct {
	svc *services.ChannelService
}

type createChannelRequest struct {
	Name string `json:"name" validate:"required,min=2,max=64"`
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

func NewChannelHandler(db *gorm.DB, hub *realtime.Hub) (*ChannelHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewChannelService(db, hub, audit)
	if err != nil {
		return nil, err
	}
	return &ChannelHandler{svc: svc}, nil
}

// channelInProject loads the channel and verifies it belongs to the project
// the route (and its access check) is scoped to. A mismatch renders as
// not-found so channel ids cannot be probed across projects.
func (h *ChannelHandler) channelInProject(c *gin.Context) (*models.Channel, bool) {
	channel, err := h.svc.GetChannel(requestContext(c), c.Param("channelID"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if channel.ProjectID != c.Param("projectID") {
		response.Error(c, errors.ErrNotFound)
		return nil, false
	}
	return channel, true
}

// GET /api/projects/:projectID/channels
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.svc.ListChannels(requestContext(c), c.Param("projectID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, channels)
}

// POST /api/projects/:projectID/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	var body createChannelRequest
	if !bindAndValidate(c, &body) {
		return
	}

	channel, err := h.svc.CreateChannel(requestContext(c), c.Param("projectID"), strings.TrimSpace(body.Name))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, channel)
}

// GET /api/projects/:projectID/channels/:channelID/messages
func (h *ChannelHandler) ListMessages(c *gin.Context) {
	channel, ok := h.channelInProject(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	messages, err := h.svc.ListMessages(requestContext(c), channel.ID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}

// POST /api/projects/:projectID/channels/:channelID/messages
func (h *ChannelHandler) PostMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	channel, ok := h.channelInProject(c)
	if !ok {
		return
	}

	var body postMessageRequest
	if !bindAndValidate(c, &body) {
		return
	}

	message, err := h.svc.PostMessage(requestContext(c), channel.ID, services.PostMessageInput{
		AuthorID: userID,
		Body:     body.Body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// DELETE /api/projects/:projectID/channels/:channelID
func (h *ChannelHandler) Delete(c *gin.Context) {
	channel, ok := h.channelInProject(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteChannel(requestContext(c), channel.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
