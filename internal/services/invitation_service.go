package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

const (
	defaultInvitationExpiry     = 72 * time.Hour
	defaultInvitationTokenBytes = 48
)

var (
	// ErrInvitationNotFound indicates no invitation matches the provided token.
	ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)
	// ErrInvitationExpired indicates the invitation token has expired.
	ErrInvitationExpired = apperrors.New("INVITATION_EXPIRED", "Invitation has expired", http.StatusGone)
	// ErrInvitationAlreadyUsed signals the invitation was already accepted.
	ErrInvitationAlreadyUsed = apperrors.New("INVITATION_USED", "Invitation has already been accepted", http.StatusConflict)
)

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationExpiry overrides the invitation token lifetime.
func WithInvitationExpiry(d time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInvitationTokenSize adjusts the random token length in bytes.
func WithInvitationTokenSize(size int) InvitationOption {
	return func(s *InvitationService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// CreateInvitationInput describes a pending membership offer.
type CreateInvitationInput struct {
	Email      string
	Role       string
	ProjectIDs []string
	InvitedBy  string
}

// InvitationService manages generation and redemption of team invitations.
// Only the SHA-256 hash of a token is ever stored; the raw token is returned
// once at creation time and delivered out of band.
type InvitationService struct {
	db          *gorm.DB
	teams       *TeamService
	audit       *AuditService
	expiry      time.Duration
	tokenLength int
	now         func() time.Time
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
func NewInvitationService(db *gorm.DB, teams *TeamService, audit *AuditService, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if teams == nil {
		return nil, errors.New("invitation service: team service is required")
	}

	service := &InvitationService{
		db:          db,
		teams:       teams,
		audit:       audit,
		expiry:      defaultInvitationExpiry,
		tokenLength: defaultInvitationTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Create issues an invitation and returns the raw token exactly once.
func (s *InvitationService) Create(ctx context.Context, teamID string, input CreateInvitationInput) (*models.Invitation, string, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", apperrors.NewBadRequest("email is required")
	}

	role, ok := policy.ParseRole(input.Role)
	if !ok {
		return nil, "", ErrInvalidRole
	}

	if _, err := s.teams.Get(ctx, teamID); err != nil {
		return nil, "", err
	}

	rawToken, err := generateToken(s.tokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.Invitation{
		TeamID:     strings.TrimSpace(teamID),
		Email:      email,
		Role:       string(role),
		ProjectIDs: normaliseIDs(input.ProjectIDs),
		TokenHash:  tokenHash(rawToken),
		InvitedBy:  strings.TrimSpace(input.InvitedBy),
		ExpiresAt:  s.now().Add(s.expiry),
	}

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, "", fmt.Errorf("invitation service: create invitation: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TeamID:   invitation.TeamID,
		Action:   "invitation.create",
		Resource: invitation.ID,
		Result:   "success",
		Metadata: map[string]any{"email": email, "role": string(role)},
	})

	return invitation, rawToken, nil
}

// Redeem validates a token and converts it into an active membership for the
// accepting user. A revoked membership is reactivated with the invited role.
func (s *InvitationService) Redeem(ctx context.Context, token, userID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash(token)).
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}

	now := s.now()
	if invitation.ExpiresAt.Before(now) {
		return nil, ErrInvitationExpired
	}
	if invitation.AcceptedAt != nil {
		return nil, ErrInvitationAlreadyUsed
	}

	membership, err := s.teams.UpsertMember(ctx, invitation.TeamID, UpsertMemberInput{
		UserID:     userID,
		Role:       invitation.Role,
		ProjectIDs: invitation.ProjectIDs,
		InvitedBy:  invitation.InvitedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&invitation).
		Updates(map[string]any{"accepted_at": now, "accepted_by": userID}).Error; err != nil {
		return nil, fmt.Errorf("invitation service: mark accepted: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TeamID:   invitation.TeamID,
		Action:   "invitation.redeem",
		Resource: invitation.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return membership, nil
}

// ListPending returns a team's unaccepted, unexpired invitations.
func (s *InvitationService) ListPending(ctx context.Context, teamID string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	var invitations []models.Invitation
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND accepted_at IS NULL AND expires_at > ?", teamID, s.now()).
		Order("created_at").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// Revoke deletes a pending invitation belonging to the team.
func (s *InvitationService) Revoke(ctx context.Context, teamID, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND team_id = ? AND accepted_at IS NULL", id, teamID).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return fmt.Errorf("invitation service: revoke invitation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvitationNotFound
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TeamID:   teamID,
		Action:   "invitation.revoke",
		Resource: id,
		Result:   "success",
	})

	return nil
}

// PurgeStale removes expired and long-accepted invitations. It returns the
// number of rows deleted and is invoked by the maintenance cleaner.
func (s *InvitationService) PurgeStale(ctx context.Context, acceptedRetention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	now := s.now()
	cutoff := now.Add(-acceptedRetention)

	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR (accepted_at IS NOT NULL AND accepted_at < ?)", now, cutoff).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return 0, fmt.Errorf("invitation service: purge invitations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func generateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

func tokenHash(token string) string {
	checksum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(checksum[:])
}
