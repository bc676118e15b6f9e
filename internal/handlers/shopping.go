package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type ShoppingHandler struct {
	svc *services.ShoppingService
}

type addShoppingItemRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=256"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=10000"`
	Note     string `json:"note" validate:"omitempty,max=1024"`
}

type updateShoppingItemRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=256"`
	Quantity  *int    `json:"quantity" validate:"omitempty,min=1,max=10000"`
	Note      *string `json:"note" validate:"omitempty,max=1024"`
	Purchased *bool   `json:"purchased"`
}

func NewShoppingHandler(db *gorm.DB) (*ShoppingHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewShoppingService(db, audit)
	if err != nil {
		return nil, err
	}
	return &ShoppingHandler{svc: svc}, nil
}

// GET /api/projects/:projectID/shopping
func (h *ShoppingHandler) List(c *gin.Context) {
	items, err := h.svc.List(requestContext(c), c.Param("projectID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/projects/:projectID/shopping
func (h *ShoppingHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body addShoppingItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.svc.Add(requestContext(c), c.Param("projectID"), services.AddShoppingItemInput{
		Name:     strings.TrimSpace(body.Name),
		Quantity: body.Quantity,
		Note:     strings.TrimSpace(body.Note),
		AddedBy:  userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

// PATCH /api/projects/:projectID/shopping/:itemID
func (h *ShoppingHandler) Update(c *gin.Context) {
	var body updateShoppingItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.svc.Update(requestContext(c), c.Param("projectID"), c.Param("itemID"), services.UpdateShoppingItemInput{
		Name:      body.Name,
		Quantity:  body.Quantity,
		Note:      body.Note,
		Purchased: body.Purchased,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// DELETE /api/projects/:projectID/shopping/:itemID
func (h *ShoppingHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(requestContext(c), c.Param("projectID"), c.Param("itemID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
