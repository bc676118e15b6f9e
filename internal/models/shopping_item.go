package models

// ShoppingItem is a line on a project's shopping list.
type ShoppingItem struct {
	BaseModel

	ProjectID string   `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`

	Name      string `gorm:"not null" json:"name"`
	Quantity  int    `gorm:"default:1" json:"quantity"`
	Note      string `json:"note,omitempty"`
	Purchased bool   `gorm:"default:false" json:"purchased"`
	AddedBy   string `json:"added_by"`
}
