package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/database/testutil"
	"github.com/vibeplanner/vibeplanner/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func newAuditService(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	return svc
}

func createTestTeam(t *testing.T, db *gorm.DB, teams *TeamService, slug string) *models.Team {
	t.Helper()
	team, err := teams.Create(context.Background(), CreateTeamInput{
		Name:          slug,
		Slug:          slug,
		ExternalOrgID: "org_" + slug,
		CreatorUserID: "owner-" + slug,
	})
	require.NoError(t, err)
	return team
}

func createTestProject(t *testing.T, db *gorm.DB, teamID, slug string) *models.Project {
	t.Helper()
	project := &models.Project{TeamID: teamID, Name: slug, Slug: slug}
	require.NoError(t, db.Create(project).Error)
	return project
}
