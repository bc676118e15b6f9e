package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
)

// normaliseIDs trims, de-duplicates, and drops empty project ids before they
// are stored as a membership or invitation scope. Order of first appearance
// is preserved.
func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// projectTeamID resolves the team owning a project so audit entries can be
// attributed to their tenant. A project that cannot be loaded yields "";
// the audit entry is then recorded without a team rather than failing the
// operation it describes.
func projectTeamID(ctx context.Context, db *gorm.DB, projectID string) string {
	var project models.Project
	err := db.WithContext(ctx).
		Select("team_id").
		First(&project, "id = ?", strings.TrimSpace(projectID)).Error
	if err != nil {
		return ""
	}
	return project.TeamID
}
