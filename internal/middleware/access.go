package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/metrics"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

// CtxDecisionKey holds the access decision computed for the current request.
const CtxDecisionKey = "accessDecision"

// RequireTeamAccess gates a route on the caller's team membership. The team id
// is read from the named path parameter. Denied writes are written to the
// audit trail; audit may be nil where no trail is kept.
func RequireTeamAccess(evaluator *policy.Evaluator, audit *services.AuditService, param string, op policy.Operation) gin.HandlerFunc {
	return requireAccess(evaluator, audit, policy.KindTeam, param, op)
}

// RequireProjectAccess gates a route on project visibility.
func RequireProjectAccess(evaluator *policy.Evaluator, audit *services.AuditService, param string, op policy.Operation) gin.HandlerFunc {
	return requireAccess(evaluator, audit, policy.KindProject, param, op)
}

// RequireTaskAccess gates a route on the enclosing project's visibility.
func RequireTaskAccess(evaluator *policy.Evaluator, audit *services.AuditService, param string, op policy.Operation) gin.HandlerFunc {
	return requireAccess(evaluator, audit, policy.KindTask, param, op)
}

func requireAccess(evaluator *policy.Evaluator, audit *services.AuditService, kind policy.ResourceKind, param string, op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, errors.ErrUnauthenticated)
			c.Abort()
			return
		}

		ref := policy.ResourceRef{Kind: kind, ID: c.Param(param)}
		decision, err := evaluator.Evaluate(c.Request.Context(), userID, ref, op)
		if err != nil {
			response.Error(c, errors.Wrap(err, "access check failed"))
			c.Abort()
			return
		}

		if !decision.Allowed {
			if op == policy.OpWrite {
				metrics.DeniedWrites.WithLabelValues(string(kind)).Inc()
				recordDeniedWrite(c, evaluator, audit, ref, userID, decision)
				response.Error(c, errors.ErrForbidden)
			} else {
				// Denied reads render as not-found so resource existence
				// is never revealed to callers outside its scope.
				response.Error(c, errors.ErrNotFound)
			}
			c.Abort()
			return
		}

		c.Set(CtxDecisionKey, decision)
		c.Next()
	}
}

// recordDeniedWrite persists the blocked attempt so team admins can review it
// in the audit trail. Recording failures never alter the response.
func recordDeniedWrite(c *gin.Context, evaluator *policy.Evaluator, audit *services.AuditService, ref policy.ResourceRef, userID string, decision policy.Decision) {
	if audit == nil {
		return
	}

	ctx := c.Request.Context()
	teamID, _, err := evaluator.ResolveTeamID(ctx, ref)
	if err != nil {
		teamID = ""
	}

	_ = audit.Log(ctx, services.AuditEntry{
		TeamID:   teamID,
		ActorID:  userID,
		Action:   "access.write.denied",
		Resource: string(ref.Kind) + ":" + ref.ID,
		Result:   "denied",
		Metadata: map[string]any{"reason": string(decision.Reason)},
	})
}

// Decision returns the access decision stored by requireAccess, if any.
func Decision(c *gin.Context) (policy.Decision, bool) {
	v, ok := c.Get(CtxDecisionKey)
	if !ok {
		return policy.Decision{}, false
	}
	d, ok := v.(policy.Decision)
	return d, ok
}
