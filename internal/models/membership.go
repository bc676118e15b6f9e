package models

import "gorm.io/datatypes"

// Membership joins an external user to a team. At most one record exists per
// (team, user) pair; revocation flips IsActive rather than deleting the row,
// because tasks and messages keep referencing the user id.
type Membership struct {
	BaseModel

	TeamID string `gorm:"type:uuid;not null;uniqueIndex:idx_team_user" json:"team_id"`
	Team   *Team  `json:"team,omitempty"`

	// UserID is the external identifier issued by the identity provider.
	UserID string `gorm:"not null;uniqueIndex:idx_team_user;index" json:"user_id"`

	Role string `gorm:"not null" json:"role"`

	// ProjectIDs narrows a restricted role to specific projects. An empty
	// list means every team project for members (legacy wildcard rule) and
	// no projects at all for customer/client roles.
	ProjectIDs datatypes.JSONSlice[string] `json:"project_ids,omitempty"`

	// No column default: the stored value is always what the writer set, so
	// a record created inactive stays inactive.
	IsActive bool `gorm:"index" json:"is_active"`

	InvitedBy string `json:"invited_by,omitempty"`
}
