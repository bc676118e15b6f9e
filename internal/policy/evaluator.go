package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/pkg/logger"
	"github.com/vibeplanner/vibeplanner/pkg/metrics"
)

// ErrUnknownResourceKind indicates a caller passed a resource kind outside
// the three the policy understands. Unlike a deny, this is a programmer
// error and surfaces as an error value.
var ErrUnknownResourceKind = errors.New("policy: unknown resource kind")

// Evaluator resolves a resource to its owning team, loads the requester's
// active membership, and runs the pure decision core. A missing resource or
// membership is a deny, never an error; errors are reserved for storage
// failures and unknown resource kinds.
type Evaluator struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEvaluator constructs an evaluator backed by the provided database.
func NewEvaluator(db *gorm.DB) (*Evaluator, error) {
	if db == nil {
		return nil, errors.New("policy evaluator: db is required")
	}
	return &Evaluator{db: db, log: logger.WithModule("policy")}, nil
}

// ResourceRef names a stored resource before resolution.
type ResourceRef struct {
	Kind ResourceKind
	ID   string
}

// Evaluate answers whether the principal may perform op on the referenced
// resource, and reports the matched role tag for navigation filtering.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, ref ResourceRef, op Operation) (Decision, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return e.record(Decision{Reason: ReasonNoPrincipal}), nil
	}

	teamID, res, found, err := e.resolve(ctx, ref)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		// Deny without revealing existence; log distinctly for debugging.
		e.log.Debug("resource not found during policy evaluation",
			zap.String("kind", string(ref.Kind)),
			zap.String("resource_id", ref.ID),
		)
		return e.record(Decision{Reason: ReasonNotFound}), nil
	}

	var m models.Membership
	err = e.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.record(Decide(nil, res, op)), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("policy evaluator: load membership: %w", err)
	}

	decision := Decide(&Membership{
		Role:       m.Role,
		ProjectIDs: m.ProjectIDs,
		IsActive:   m.IsActive,
	}, res, op)

	if decision.Reason == ReasonInvalidRole {
		// A membership row carrying a role outside the known set means the
		// store was written with bad data.
		e.log.Warn("membership has unknown role",
			zap.String("team_id", teamID),
			zap.String("user_id", userID),
			zap.String("role", m.Role),
		)
	}

	return e.record(decision), nil
}

// EvaluateTeam evaluates op against a team-level resource.
func (e *Evaluator) EvaluateTeam(ctx context.Context, userID, teamID string, op Operation) (Decision, error) {
	return e.Evaluate(ctx, userID, ResourceRef{Kind: KindTeam, ID: teamID}, op)
}

// EvaluateProject evaluates op against a project and everything scoped to it.
func (e *Evaluator) EvaluateProject(ctx context.Context, userID, projectID string, op Operation) (Decision, error) {
	return e.Evaluate(ctx, userID, ResourceRef{Kind: KindProject, ID: projectID}, op)
}

// EvaluateTask evaluates op against a task by resolving through its project.
func (e *Evaluator) EvaluateTask(ctx context.Context, userID, taskID string, op Operation) (Decision, error) {
	return e.Evaluate(ctx, userID, ResourceRef{Kind: KindTask, ID: taskID}, op)
}

// ResolveTeamID maps a resource reference to its owning team id. found is
// false when the resource or its ownership chain does not exist. Audit
// recording uses it to attribute denied operations to their tenant.
func (e *Evaluator) ResolveTeamID(ctx context.Context, ref ResourceRef) (string, bool, error) {
	teamID, _, found, err := e.resolve(ensureContext(ctx), ref)
	return teamID, found, err
}

// ProjectFilter describes which of a team's projects the principal can see.
// List endpoints use it to narrow queries instead of evaluating row by row.
type ProjectFilter struct {
	Role Role
	All  bool
	IDs  []string
}

// VisibleProjects computes the project visibility filter for a principal on
// a team. No membership yields an empty filter (sees nothing).
func (e *Evaluator) VisibleProjects(ctx context.Context, userID, teamID string) (ProjectFilter, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ProjectFilter{}, nil
	}

	var m models.Membership
	err := e.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ProjectFilter{}, nil
	}
	if err != nil {
		return ProjectFilter{}, fmt.Errorf("policy evaluator: load membership: %w", err)
	}

	role, ok := ParseRole(m.Role)
	if !ok {
		return ProjectFilter{}, nil
	}

	if role == RoleAdmin {
		return ProjectFilter{Role: role, All: true}, nil
	}

	sc := scopeFor(role, m.ProjectIDs)
	if sc.all {
		return ProjectFilter{Role: role, All: true}, nil
	}

	ids := make([]string, 0, len(sc.ids))
	for id := range sc.ids {
		ids = append(ids, id)
	}
	return ProjectFilter{Role: role, IDs: ids}, nil
}

// resolve maps a resource reference to its owning team id and the resolved
// resource for the decision core. found is false when the resource (or any
// link in its ownership chain) does not exist.
func (e *Evaluator) resolve(ctx context.Context, ref ResourceRef) (teamID string, res Resource, found bool, err error) {
	id := strings.TrimSpace(ref.ID)
	if id == "" {
		return "", Resource{}, false, nil
	}

	switch ref.Kind {
	case KindTeam:
		var team models.Team
		err := e.db.WithContext(ctx).Select("id").First(&team, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", Resource{}, false, nil
		}
		if err != nil {
			return "", Resource{}, false, fmt.Errorf("policy evaluator: load team: %w", err)
		}
		return team.ID, TeamResource(), true, nil

	case KindProject:
		var project models.Project
		err := e.db.WithContext(ctx).Select("id", "team_id").First(&project, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", Resource{}, false, nil
		}
		if err != nil {
			return "", Resource{}, false, fmt.Errorf("policy evaluator: load project: %w", err)
		}
		return project.TeamID, ProjectResource(project.ID), true, nil

	case KindTask:
		var task models.Task
		err := e.db.WithContext(ctx).Select("id", "project_id").First(&task, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", Resource{}, false, nil
		}
		if err != nil {
			return "", Resource{}, false, fmt.Errorf("policy evaluator: load task: %w", err)
		}

		var project models.Project
		err = e.db.WithContext(ctx).Select("id", "team_id").First(&project, "id = ?", task.ProjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Orphaned task: owning project is gone, so deny.
			return "", Resource{}, false, nil
		}
		if err != nil {
			return "", Resource{}, false, fmt.Errorf("policy evaluator: load owning project: %w", err)
		}
		return project.TeamID, TaskResource(project.ID), true, nil

	default:
		return "", Resource{}, false, fmt.Errorf("%w: %q", ErrUnknownResourceKind, ref.Kind)
	}
}

func (e *Evaluator) record(d Decision) Decision {
	roleLabel := string(d.Role)
	if roleLabel == "" {
		roleLabel = "none"
	}
	result := "deny"
	if d.Allowed {
		result = "allow"
	}
	metrics.PolicyDecisions.WithLabelValues(roleLabel, result).Inc()
	return d
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
