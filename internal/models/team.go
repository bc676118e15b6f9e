package models

// Team is the tenant boundary: every project, task, and membership belongs to
// exactly one team. The slug is referenced by project URLs and must not change
// once projects exist.
type Team struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	// ExternalOrgID links the team to the organization record held by the
	// identity provider. Teams created directly through the API have none;
	// the column is nullable so absent values never collide in the index.
	ExternalOrgID *string `gorm:"uniqueIndex" json:"external_org_id,omitempty"`

	Memberships []Membership `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Projects    []Project    `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"projects,omitempty"`
}
