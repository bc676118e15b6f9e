package models

// Channel is a chat room scoped to a project. Visibility follows the owning
// project's policy decision, like every other project resource.
type Channel struct {
	BaseModel

	ProjectID string   `gorm:"type:uuid;not null;uniqueIndex:idx_project_channel;index" json:"project_id"`
	Project   *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`

	Name string `gorm:"not null;uniqueIndex:idx_project_channel" json:"name"`

	Messages []ChannelMessage `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ChannelMessage is a persisted chat message.
type ChannelMessage struct {
	BaseModel

	ChannelID string   `gorm:"type:uuid;not null;index" json:"channel_id"`
	Channel   *Channel `json:"channel,omitempty"`

	AuthorID string `gorm:"not null;index" json:"author_id"`
	Body     string `gorm:"not null" json:"body"`
}
