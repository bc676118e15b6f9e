package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records security-relevant events: membership changes, denied
// writes, invitation lifecycle, resource deletion. ActorID is the external
// user identifier; denied and not-found outcomes are recorded distinctly even
// though callers see them identically. TeamID scopes the entry to the tenant
// it concerns; team-scoped listings must always filter on it.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	TeamID    string    `gorm:"type:uuid;index" json:"team_id,omitempty"`
	ActorID   string    `gorm:"index" json:"actor_id"`
	Action    string    `gorm:"not null;index" json:"action"`
	Resource  string    `gorm:"index" json:"resource"`
	Result    string    `gorm:"not null" json:"result"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Metadata  string    `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
