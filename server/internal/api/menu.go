package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside/pkg/types"
	"github.com/tableside/tableside/server/internal/store"
)

func (h *Handler) getMenu(c *gin.Context) {
	items, err := h.store.ListMenuItems(c.Request.Context())
	if err != nil {
		failInternal(c, "Error retrieving menu items", err)
		return
	}
	if len(items) == 0 {
		fail(c, http.StatusNotFound, "No menu items found!")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getMenuItem(c *gin.Context) {
	item, err := h.store.GetMenuItem(c.Request.Context(), c.Param("itemId"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "No menu item found!")
		return
	}
	if err != nil {
		failInternal(c, "Error retrieving menu item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) newMenuItem(c *gin.Context) {
	var req newMenuItemRequest
	if !bind(c, &req) {
		return
	}
	if req.Name == "" || req.Category == "" || req.Description == "" || req.Price == 0 {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	item := store.MenuItem{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Available:   req.Available == nil || *req.Available,
		Image:       req.Image,
	}
	if _, err := h.store.CreateMenuItem(c.Request.Context(), item); err != nil {
		failInternal(c, "Error adding menu item", err)
		return
	}
	ok(c, http.StatusCreated, "Menu item added successfully!")
}

func (h *Handler) updateMenuItem(c *gin.Context) {
	var req updateMenuItemRequest
	if !bind(c, &req) {
		return
	}
	if req.ItemID == "" {
		fail(c, http.StatusBadRequest, "Missing item ID")
		return
	}

	item, err := h.store.UpdateMenuItem(c.Request.Context(), req.ItemID, store.MenuItemUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Available:   req.Available,
		Image:       req.Image,
	})
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "Menu item not found!")
		return
	}
	if err != nil {
		failInternal(c, "Error updating menu item", err)
		return
	}

	if !item.Available {
		h.notifier.NotifyRoles([]string{types.RoleUser}, types.EventMenuItemUnavailable, types.Payload{
			"itemId": item.ID,
			"status": "Item unavailable",
		})
	}
	ok(c, http.StatusOK, "Menu item updated successfully!")
}

func (h *Handler) deleteMenuItem(c *gin.Context) {
	var req deleteMenuItemRequest
	if !bind(c, &req) {
		return
	}
	if req.ItemID == "" {
		fail(c, http.StatusBadRequest, "Missing item ID")
		return
	}

	err := h.store.DeleteMenuItem(c.Request.Context(), req.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "Menu item not found!")
		return
	}
	if err != nil {
		failInternal(c, "Error deleting menu item", err)
		return
	}
	ok(c, http.StatusOK, "Menu item deleted successfully!")
}
