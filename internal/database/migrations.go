package database

import (
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Team{},
		&models.Membership{},
		&models.Project{},
		&models.Task{},
		&models.Channel{},
		&models.ChannelMessage{},
		&models.Survey{},
		&models.SurveyResponse{},
		&models.ShoppingItem{},
		&models.Invitation{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
