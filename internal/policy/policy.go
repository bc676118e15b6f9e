package policy

import "strings"

// Operation is the two-level permission lattice. There are no finer-grained
// permissions: every call site is either a read or a write.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// ResourceKind identifies the three resource types the policy understands.
type ResourceKind string

const (
	KindTeam    ResourceKind = "team"
	KindProject ResourceKind = "project"
	KindTask    ResourceKind = "task"
)

// Resource is a resource already resolved to its owning team. Project and
// task resources carry the owning project id; a task's decision is by
// construction identical to its project's.
type Resource struct {
	Kind      ResourceKind
	ProjectID string
}

// TeamResource describes a team-level resource (settings, member roster,
// navigation shell).
func TeamResource() Resource {
	return Resource{Kind: KindTeam}
}

// ProjectResource describes a project and everything that hangs off it.
func ProjectResource(projectID string) Resource {
	return Resource{Kind: KindProject, ProjectID: projectID}
}

// TaskResource describes a task through its owning project.
func TaskResource(projectID string) Resource {
	return Resource{Kind: KindTask, ProjectID: projectID}
}

// Membership is the snapshot the decision core reasons over. Callers pass it
// explicitly; the core never reaches into request state or storage.
type Membership struct {
	Role       string
	ProjectIDs []string
	IsActive   bool
}

// Decision is the policy outcome. Role carries the matched role tag for the
// navigation filter even when the specific operation was denied; it is empty
// when no valid active membership exists.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Role    Role   `json:"role,omitempty"`
	Reason  Reason `json:"-"`
}

// Reason classifies a deny for server-side logging and metrics. Callers must
// not surface it to principals: denied reads render as not-found.
type Reason string

const (
	ReasonAllowed      Reason = "allowed"
	ReasonNoPrincipal  Reason = "no_principal"
	ReasonNoMembership Reason = "no_membership"
	ReasonInvalidRole  Reason = "invalid_role"
	ReasonOutOfScope   Reason = "out_of_scope"
	ReasonReadOnlyRole Reason = "read_only_role"
	ReasonNotFound     Reason = "resource_not_found"
)

// scope is the explicit form of the stored project-id list. Members with an
// empty list historically get the whole team; restricted roles with an empty
// list get nothing. Representing that as a variant keeps the wildcard rule in
// one place instead of scattering emptiness checks.
type scope struct {
	all bool
	ids map[string]struct{}
}

func scopeFor(role Role, projectIDs []string) scope {
	ids := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	// Legacy wildcard: an unscoped member sees every team project. Do not
	// tighten this; existing memberships rely on it.
	if role == RoleMember && len(ids) == 0 {
		return scope{all: true}
	}
	return scope{ids: ids}
}

func (s scope) contains(projectID string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[projectID]
	return ok
}

// Decide evaluates the role rules for an already-resolved resource. It is a
// pure function of its inputs: no lookups, no caching, no writes. Deny is a
// value, never an error.
//
// The cases are ordered and the first match wins; rules never combine.
func Decide(m *Membership, res Resource, op Operation) Decision {
	if m == nil || !m.IsActive {
		return Decision{Reason: ReasonNoMembership}
	}

	role, ok := ParseRole(m.Role)
	if !ok {
		return Decision{Reason: ReasonInvalidRole}
	}

	if role == RoleAdmin {
		return Decision{Allowed: true, Role: role, Reason: ReasonAllowed}
	}

	sc := scopeFor(role, m.ProjectIDs)

	if role == RoleMember {
		if sc.all {
			return Decision{Allowed: true, Role: role, Reason: ReasonAllowed}
		}
		// Scoped members always keep team-level reads: they need the team
		// shell to navigate to their projects.
		if res.Kind == KindTeam {
			if op == OpRead {
				return Decision{Allowed: true, Role: role, Reason: ReasonAllowed}
			}
			return Decision{Role: role, Reason: ReasonOutOfScope}
		}
		if sc.contains(res.ProjectID) {
			return Decision{Allowed: true, Role: role, Reason: ReasonAllowed}
		}
		return Decision{Role: role, Reason: ReasonOutOfScope}
	}

	// customer and client: read-only, scope-gated, no team-level access.
	if role.ReadOnly() {
		if op != OpRead {
			return Decision{Role: role, Reason: ReasonReadOnlyRole}
		}
		if res.Kind == KindTeam {
			return Decision{Role: role, Reason: ReasonOutOfScope}
		}
		if sc.contains(res.ProjectID) {
			return Decision{Allowed: true, Role: role, Reason: ReasonAllowed}
		}
		return Decision{Role: role, Reason: ReasonOutOfScope}
	}

	return Decision{Reason: ReasonInvalidRole}
}
