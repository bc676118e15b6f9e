package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

// ErrShoppingItemNotFound indicates the requested item does not exist.
var ErrShoppingItemNotFound = apperrors.New("SHOPPING_ITEM_NOT_FOUND", "Shopping item not found", http.StatusNotFound)

// AddShoppingItemInput captures a new shopping list line.
type AddShoppingItemInput struct {
	Name     string
	Quantity int
	Note     string
	AddedBy  string
}

// UpdateShoppingItemInput describes mutable item fields.
type UpdateShoppingItemInput struct {
	Name      *string
	Quantity  *int
	Note      *string
	Purchased *bool
}

// ShoppingService manages per-project shopping lists.
type ShoppingService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewShoppingService constructs a ShoppingService instance.
func NewShoppingService(db *gorm.DB, auditService *AuditService) (*ShoppingService, error) {
	if db == nil {
		return nil, errors.New("shopping service: db is required")
	}
	return &ShoppingService{db: db, auditService: auditService}, nil
}

// Add appends an item to the project's shopping list.
func (s *ShoppingService) Add(ctx context.Context, projectID string, input AddShoppingItemInput) (*models.ShoppingItem, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("item name is required")
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item := &models.ShoppingItem{
		ProjectID: strings.TrimSpace(projectID),
		Name:      name,
		Quantity:  quantity,
		Note:      strings.TrimSpace(input.Note),
		AddedBy:   strings.TrimSpace(input.AddedBy),
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("shopping service: add item: %w", err)
	}

	return item, nil
}

// List returns the project's shopping list, unpurchased items first.
func (s *ShoppingService) List(ctx context.Context, projectID string) ([]models.ShoppingItem, error) {
	ctx = ensureContext(ctx)

	var items []models.ShoppingItem
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("purchased, created_at").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("shopping service: list items: %w", err)
	}
	return items, nil
}

// Update modifies an item, including toggling its purchased flag. The item
// must belong to projectID so list entries cannot be reached across projects.
func (s *ShoppingService) Update(ctx context.Context, projectID, id string, input UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	ctx = ensureContext(ctx)

	var item models.ShoppingItem
	err := s.db.WithContext(ctx).First(&item, "id = ? AND project_id = ?", id, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShoppingItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("shopping service: load item: %w", err)
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Quantity != nil && *input.Quantity > 0 {
		updates["quantity"] = *input.Quantity
	}
	if input.Note != nil {
		updates["note"] = strings.TrimSpace(*input.Note)
	}
	if input.Purchased != nil {
		updates["purchased"] = *input.Purchased
	}

	if len(updates) == 0 {
		return &item, nil
	}

	if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("shopping service: update item: %w", err)
	}

	return &item, nil
}

// Remove deletes an item from the list.
func (s *ShoppingService) Remove(ctx context.Context, projectID, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.ShoppingItem{}, "id = ? AND project_id = ?", id, projectID)
	if result.Error != nil {
		return fmt.Errorf("shopping service: remove item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrShoppingItemNotFound
	}
	return nil
}
