package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vibeplanner/vibeplanner/internal/models"
)

func TestShoppingServiceLifecycle(t *testing.T) {
	db := openServiceTestDB(t)
	shoppingSvc, err := NewShoppingService(db, newAuditService(t, db))
	require.NoError(t, err)

	ctx := context.Background()

	team := models.Team{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&team).Error)
	project := createTestProject(t, db, team.ID, "website")

	item, err := shoppingSvc.Add(ctx, project.ID, AddShoppingItemInput{
		Name:    "Whiteboard markers",
		AddedBy: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
	require.False(t, item.Purchased)

	purchased := true
	quantity := 3
	updated, err := shoppingSvc.Update(ctx, project.ID, item.ID, UpdateShoppingItemInput{
		Purchased: &purchased,
		Quantity:  &quantity,
	})
	require.NoError(t, err)
	_ = updated

	_, err = shoppingSvc.Update(ctx, "other-project", item.ID, UpdateShoppingItemInput{Purchased: &purchased})
	require.ErrorIs(t, err, ErrShoppingItemNotFound)

	items, err := shoppingSvc.List(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Purchased)
	require.Equal(t, 3, items[0].Quantity)

	require.NoError(t, shoppingSvc.Remove(ctx, project.ID, item.ID))
	require.ErrorIs(t, shoppingSvc.Remove(ctx, project.ID, item.ID), ErrShoppingItemNotFound)
}

func TestShoppingServiceAddValidation(t *testing.T) {
	db := openServiceTestDB(t)
	shoppingSvc, err := NewShoppingService(db, newAuditService(t, db))
	require.NoError(t, err)

	_, err = shoppingSvc.Add(context.Background(), "p1", AddShoppingItemInput{Name: "  "})
	require.Error(t, err)
}
