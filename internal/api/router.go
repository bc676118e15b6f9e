package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/app"
	iauth "github.com/vibeplanner/vibeplanner/internal/auth"
	"github.com/vibeplanner/vibeplanner/internal/handlers"
	"github.com/vibeplanner/vibeplanner/internal/middleware"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/realtime"
	"github.com/vibeplanner/vibeplanner/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// Every resource route carries an explicit access check: reads deny as
// not-found, writes deny as forbidden.
func NewRouter(db *gorm.DB, tokens *iauth.TokenService, cfg *app.Config, hub *realtime.Hub, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	evaluator, err := policy.NewEvaluator(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.Server.RateLimit.Enabled {
		if rateStore == nil {
			rateStore = middleware.NewMemoryRateStore()
		}
		r.Use(middleware.RateLimitWithStore(rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	teamHandler, err := handlers.NewTeamHandler(db)
	if err != nil {
		return nil, err
	}
	projectHandler, err := handlers.NewProjectHandler(db, evaluator)
	if err != nil {
		return nil, err
	}
	taskHandler, err := handlers.NewTaskHandler(db)
	if err != nil {
		return nil, err
	}
	channelHandler, err := handlers.NewChannelHandler(db, hub)
	if err != nil {
		return nil, err
	}
	surveyHandler, err := handlers.NewSurveyHandler(db)
	if err != nil {
		return nil, err
	}
	shoppingHandler, err := handlers.NewShoppingHandler(db)
	if err != nil {
		return nil, err
	}
	invitationHandler, err := handlers.NewInvitationHandler(db)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(db)
	if err != nil {
		return nil, err
	}
	navigationHandler, err := handlers.NewNavigationHandler(evaluator)
	if err != nil {
		return nil, err
	}

	// The realtime endpoint authenticates from the query string because
	// WebSocket clients cannot set request headers.
	projectSvc, err := services.NewProjectService(db, evaluator, audit)
	if err != nil {
		return nil, err
	}
	realtimeHandler := handlers.NewRealtimeHandler(hub, tokens, evaluator, projectSvc)
	r.GET("/api/teams/:teamID/realtime", realtimeHandler.Stream)

	requireAuth := middleware.Auth(tokens)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.POST("/invitations/redeem", invitationHandler.Redeem)

	teams := api.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.POST("", teamHandler.Create)

		team := teams.Group("/:teamID")
		{
			readTeam := middleware.RequireTeamAccess(evaluator, audit, "teamID", policy.OpRead)
			writeTeam := middleware.RequireTeamAccess(evaluator, audit, "teamID", policy.OpWrite)

			team.GET("", readTeam, teamHandler.Get)
			team.PATCH("", writeTeam, teamHandler.Update)
			team.DELETE("", writeTeam, teamHandler.Delete)

			team.GET("/members", readTeam, teamHandler.ListMembers)
			team.PUT("/members", writeTeam, teamHandler.UpsertMember)
			team.DELETE("/members/:userID", writeTeam, teamHandler.RemoveMember)

			// Navigation and project listings narrow to the caller's
			// visibility instead of gating on team access, so read-only
			// roles still get their scoped view.
			team.GET("/navigation", navigationHandler.Get)
			team.GET("/projects", projectHandler.List)
			team.POST("/projects", writeTeam, projectHandler.Create)

			team.GET("/audit", readTeam, auditHandler.List)

			team.POST("/invitations", writeTeam, invitationHandler.Create)
			team.GET("/invitations", writeTeam, invitationHandler.ListPending)
			team.DELETE("/invitations/:invitationID", writeTeam, invitationHandler.Revoke)
		}
	}

	projects := api.Group("/projects/:projectID")
	{
		readProject := middleware.RequireProjectAccess(evaluator, audit, "projectID", policy.OpRead)
		writeProject := middleware.RequireProjectAccess(evaluator, audit, "projectID", policy.OpWrite)

		projects.GET("", readProject, projectHandler.Get)
		projects.PATCH("", writeProject, projectHandler.Update)
		projects.DELETE("", writeProject, projectHandler.Delete)

		projects.GET("/tasks", readProject, taskHandler.List)
		projects.POST("/tasks", writeProject, taskHandler.Create)

		projects.GET("/channels", readProject, channelHandler.List)
		projects.POST("/channels", writeProject, channelHandler.Create)
		projects.GET("/channels/:channelID/messages", readProject, channelHandler.ListMessages)
		projects.POST("/channels/:channelID/messages", writeProject, channelHandler.PostMessage)
		projects.DELETE("/channels/:channelID", writeProject, channelHandler.Delete)

		projects.GET("/surveys", readProject, surveyHandler.List)
		projects.POST("/surveys", writeProject, surveyHandler.Create)
		projects.GET("/surveys/:surveyID", readProject, surveyHandler.Get)
		projects.PATCH("/surveys/:surveyID/status", writeProject, surveyHandler.SetStatus)
		// Responding requires only read access: collecting answers from
		// read-only roles is the point of a survey.
		projects.POST("/surveys/:surveyID/responses", readProject, surveyHandler.Respond)
		projects.GET("/surveys/:surveyID/responses", writeProject, surveyHandler.ListResponses)
		projects.DELETE("/surveys/:surveyID", writeProject, surveyHandler.Delete)

		projects.GET("/shopping", readProject, shoppingHandler.List)
		projects.POST("/shopping", writeProject, shoppingHandler.Add)
		projects.PATCH("/shopping/:itemID", writeProject, shoppingHandler.Update)
		projects.DELETE("/shopping/:itemID", writeProject, shoppingHandler.Remove)
	}

	tasks := api.Group("/tasks/:taskID")
	{
		readTask := middleware.RequireTaskAccess(evaluator, audit, "taskID", policy.OpRead)
		writeTask := middleware.RequireTaskAccess(evaluator, audit, "taskID", policy.OpWrite)

		tasks.GET("", readTask, taskHandler.Get)
		tasks.PATCH("", writeTask, taskHandler.Update)
		tasks.DELETE("", writeTask, taskHandler.Delete)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
