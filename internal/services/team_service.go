package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

var (
	// ErrTeamNotFound indicates the requested team does not exist.
	ErrTeamNotFound = apperrors.New("TEAM_NOT_FOUND", "Team not found", http.StatusNotFound)
	// ErrMembershipNotFound indicates the user has no membership record in the team.
	ErrMembershipNotFound = apperrors.New("MEMBERSHIP_NOT_FOUND", "User is not a member of the team", http.StatusNotFound)
	// ErrInvalidRole signals a role outside the recognised set.
	ErrInvalidRole = apperrors.New("INVALID_ROLE", "Unknown membership role", http.StatusBadRequest)
)

// CreateTeamInput captures new team metadata. CreatorUserID receives an admin
// membership in the same transaction so the team is never orphaned.
type CreateTeamInput struct {
	Name          string
	Slug          string
	ExternalOrgID string
	CreatorUserID string
}

// UpdateTeamInput describes mutable team fields.
type UpdateTeamInput struct {
	Name *string
}

// UpsertMemberInput adds a user to a team or updates their existing record.
type UpsertMemberInput struct {
	UserID     string
	Role       string
	ProjectIDs []string
	InvitedBy  string
}

// TeamService handles team lifecycle and membership management.
type TeamService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB, auditService *AuditService) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{db: db, auditService: auditService}, nil
}

// Create registers a new team and grants the creator an admin membership.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	creator := strings.TrimSpace(input.CreatorUserID)

	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}
	if slug == "" {
		return nil, apperrors.NewBadRequest("team slug is required")
	}
	if creator == "" {
		return nil, apperrors.NewBadRequest("creator user id is required")
	}

	team := &models.Team{
		Name: name,
		Slug: slug,
	}
	if org := strings.TrimSpace(input.ExternalOrgID); org != "" {
		team.ExternalOrgID = &org
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		membership := models.Membership{
			TeamID:   team.ID,
			UserID:   creator,
			Role:     string(policy.RoleAdmin),
			IsActive: true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("team slug already exists")
		}
		return nil, fmt.Errorf("team service: create team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   team.ID,
		Action:   "team.create",
		Resource: team.ID,
		Result:   "success",
		Metadata: map[string]any{"name": team.Name, "slug": team.Slug},
	})

	return team, nil
}

// Get loads a team by id.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team models.Team
	err := s.db.WithContext(ctx).First(&team, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: load team: %w", err)
	}
	return &team, nil
}

// GetBySlug loads a team by its URL slug.
func (s *TeamService) GetBySlug(ctx context.Context, slug string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team models.Team
	err := s.db.WithContext(ctx).First(&team, "slug = ?", strings.ToLower(strings.TrimSpace(slug))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: load team: %w", err)
	}
	return &team, nil
}

// ListForUser returns the teams in which the user holds an active membership.
func (s *TeamService) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.team_id = teams.id").
		Where("memberships.user_id = ? AND memberships.is_active = ?", strings.TrimSpace(userID), true).
		Order("teams.name").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// Update modifies team metadata. The slug is immutable once set.
func (s *TeamService) Update(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	team, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != team.Name {
			updates["name"] = name
		}
	}

	if len(updates) == 0 {
		return team, nil
	}

	if err := s.db.WithContext(ctx).Model(team).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("team service: update team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   team.ID,
		Action:   "team.update",
		Resource: team.ID,
		Result:   "success",
	})

	return team, nil
}

// Delete removes a team and everything under it.
func (s *TeamService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Team{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("team service: delete team: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   id,
		Action:   "team.delete",
		Resource: id,
		Result:   "success",
	})

	return nil
}

// ListMembers returns all membership records for a team, active and revoked.
func (s *TeamService) ListMembers(ctx context.Context, teamID string) ([]models.Membership, error) {
	ctx = ensureContext(ctx)

	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("team service: list members: %w", err)
	}
	return memberships, nil
}

// UpsertMember adds a user to the team or updates their role and scope. A
// previously revoked membership is reactivated in place.
func (s *TeamService) UpsertMember(ctx context.Context, teamID string, input UpsertMemberInput) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	role, ok := policy.ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}

	scope := normaliseIDs(input.ProjectIDs)

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		membership = models.Membership{
			TeamID:     teamID,
			UserID:     userID,
			Role:       string(role),
			ProjectIDs: scope,
			IsActive:   true,
			InvitedBy:  strings.TrimSpace(input.InvitedBy),
		}
		if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.ErrConflict
			}
			return nil, fmt.Errorf("team service: create membership: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("team service: load membership: %w", err)
	default:
		membership.Role = string(role)
		membership.ProjectIDs = scope
		membership.IsActive = true
		if err := s.db.WithContext(ctx).Save(&membership).Error; err != nil {
			return nil, fmt.Errorf("team service: update membership: %w", err)
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   teamID,
		Action:   "team.member.upsert",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID, "role": string(role), "project_ids": scope},
	})

	return &membership, nil
}

// DeactivateMember revokes a user's access without deleting the record.
func (s *TeamService) DeactivateMember(ctx context.Context, teamID, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, strings.TrimSpace(userID), true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("team service: deactivate membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   teamID,
		Action:   "team.member.deactivate",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}
