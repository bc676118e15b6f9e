package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/realtime"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

const maxChannelMessageLength = 4000

var (
	// ErrChannelNotFound indicates the requested channel does not exist.
	ErrChannelNotFound = apperrors.New("CHANNEL_NOT_FOUND", "Channel not found", http.StatusNotFound)
)

// PostMessageInput carries the payload required to post a channel message.
type PostMessageInput struct {
	AuthorID string
	Body     string
}

// ChannelService persists project chat channels and relays messages through
// the realtime hub.
type ChannelService struct {
	db           *gorm.DB
	hub          *realtime.Hub
	auditService *AuditService
}

// NewChannelService constructs a ChannelService. The hub may be nil in
// contexts that do not serve websockets, such as maintenance jobs.
func NewChannelService(db *gorm.DB, hub *realtime.Hub, auditService *AuditService) (*ChannelService, error) {
	if db == nil {
		return nil, errors.New("channel service: db is required")
	}
	return &ChannelService{db: db, hub: hub, auditService: auditService}, nil
}

// CreateChannel adds a named channel to the project.
func (s *ChannelService) CreateChannel(ctx context.Context, projectID, name string) (*models.Channel, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("channel name is required")
	}

	channel := &models.Channel{
		ProjectID: strings.TrimSpace(projectID),
		Name:      name,
	}

	if err := s.db.WithContext(ctx).Create(channel).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("channel name already exists in this project")
		}
		return nil, fmt.Errorf("channel service: create channel: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, channel.ProjectID),
		Action:   "channel.create",
		Resource: channel.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": channel.ProjectID, "name": channel.Name},
	})

	return channel, nil
}

// GetChannel loads a channel by id.
func (s *ChannelService) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	ctx = ensureContext(ctx)

	var channel models.Channel
	err := s.db.WithContext(ctx).First(&channel, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("channel service: load channel: %w", err)
	}
	return &channel, nil
}

// ListChannels returns the project's channels.
func (s *ChannelService) ListChannels(ctx context.Context, projectID string) ([]models.Channel, error) {
	ctx = ensureContext(ctx)

	var channels []models.Channel
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name").
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("channel service: list channels: %w", err)
	}
	return channels, nil
}

// PostMessage sanitises, persists, and broadcasts a chat message. The body is
// HTML-escaped at write time so stored content is always safe to render.
func (s *ChannelService) PostMessage(ctx context.Context, channelID string, input PostMessageInput) (*models.ChannelMessage, error) {
	ctx = ensureContext(ctx)

	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return nil, apperrors.NewBadRequest("author id is required")
	}

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.NewBadRequest("message body is required")
	}
	if utf8.RuneCountInString(body) > maxChannelMessageLength {
		return nil, apperrors.NewBadRequest("message body exceeds maximum length")
	}

	channel, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	message := &models.ChannelMessage{
		ChannelID: channel.ID,
		AuthorID:  authorID,
		Body:      html.EscapeString(body),
	}

	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("channel service: create message: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastStream(realtime.ProjectChatStream(channel.ProjectID), realtime.Message{
			Event: "channel.message",
			Data:  message,
			Meta:  map[string]any{"channel_id": channel.ID},
		})
	}

	return message, nil
}

// ListMessages returns channel messages, newest first, with keyset pagination
// on the creation timestamp.
func (s *ChannelService) ListMessages(ctx context.Context, channelID string, limit int) ([]models.ChannelMessage, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []models.ChannelMessage
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("channel service: list messages: %w", err)
	}
	return messages, nil
}

// DeleteChannel removes a channel and its messages.
func (s *ChannelService) DeleteChannel(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	channel, err := s.GetChannel(ctx, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Channel{}, "id = ?", channel.ID)
	if result.Error != nil {
		return fmt.Errorf("channel service: delete channel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChannelNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, channel.ProjectID),
		Action:   "channel.delete",
		Resource: channel.ID,
		Result:   "success",
	})

	return nil
}
