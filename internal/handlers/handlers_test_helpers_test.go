package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/vibeplanner/vibeplanner/internal/database/testutil"
	"github.com/vibeplanner/vibeplanner/internal/middleware"
	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext() context.Context {
	return context.Background()
}

func openHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

// newJSONContext builds a gin test context carrying an optional JSON body,
// route params and an authenticated user.
func newJSONContext(t *testing.T, method string, body any, params gin.Params, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, "/", buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Params = params

	if userID != "" {
		c.Set(middleware.CtxUserIDKey, userID)
	}

	return c, recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload), recorder.Body.String())
	return payload
}

func decodeDataInto(t *testing.T, recorder *httptest.ResponseRecorder, dest any) {
	t.Helper()
	payload := decodeResponse(t, recorder)
	require.True(t, payload.Success, recorder.Body.String())
	raw, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func seedTeamWithProject(t *testing.T, db *gorm.DB, adminID string) (models.Team, models.Project) {
	t.Helper()

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	teams, err := services.NewTeamService(db, audit)
	require.NoError(t, err)

	team, err := teams.Create(testContext(), services.CreateTeamInput{
		Name:          "Acme",
		Slug:          "acme",
		CreatorUserID: adminID,
	})
	require.NoError(t, err)

	project := models.Project{TeamID: team.ID, Name: "Website", Slug: "website", Status: "planned"}
	require.NoError(t, db.Create(&project).Error)

	return *team, project
}
