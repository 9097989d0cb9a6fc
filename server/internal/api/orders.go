package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside/pkg/types"
	"github.com/tableside/tableside/server/internal/store"
)

// orderUpdateStatuses are the statuses staff may move an order to.
var orderUpdateStatuses = []string{
	store.OrderPreparing,
	store.OrderRejected,
	store.OrderWaitingDelivery,
	store.OrderDelivering,
	store.OrderDelivered,
}

// listOrders answers with the orders matching f, or 404 with notFound.
func (h *Handler) listOrders(c *gin.Context, f store.OrderFilter, notFound, failMsg string) {
	orders, err := h.store.ListOrders(c.Request.Context(), f)
	if err != nil {
		failInternal(c, failMsg, err)
		return
	}
	if len(orders) == 0 {
		fail(c, http.StatusNotFound, notFound)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// firstOrder answers with the oldest order matching f, or 404 with notFound.
func (h *Handler) firstOrder(c *gin.Context, f store.OrderFilter, notFound, failMsg string) {
	f.Limit = 1
	orders, err := h.store.ListOrders(c.Request.Context(), f)
	if err != nil {
		failInternal(c, failMsg, err)
		return
	}
	if len(orders) == 0 {
		fail(c, http.StatusNotFound, notFound)
		return
	}
	c.JSON(http.StatusOK, orders[0])
}

func (h *Handler) getAllPendingOrders(c *gin.Context) {
	h.listOrders(c, store.OrderFilter{Statuses: []string{store.OrderPending}},
		"No pending orders found", "Error retrieving pending orders")
}

func (h *Handler) getAllActiveOrders(c *gin.Context) {
	h.listOrders(c, store.OrderFilter{ExcludeStatus: store.InactiveOrderStatuses},
		"No active orders found", "Error retrieving active orders")
}

func (h *Handler) getActiveOrder(c *gin.Context) {
	h.firstOrder(c, store.OrderFilter{UserID: c.Param("userId"), ExcludeStatus: store.InactiveOrderStatuses},
		"No active orders for this user found", "Error retrieving active orders for this user")
}

func (h *Handler) getPendingOrder(c *gin.Context) {
	h.firstOrder(c, store.OrderFilter{UserID: c.Param("userId"), Statuses: []string{store.OrderPending}},
		"No pending orders for this user found", "Error retrieving pending orders for this user")
}

func (h *Handler) getOrderHistory(c *gin.Context) {
	h.listOrders(c, store.OrderFilter{UserID: c.Param("userId")},
		"No orders for this user found", "Error retrieving orders for this user")
}

func (h *Handler) newOrder(c *gin.Context) {
	var req newOrderRequest
	if !bind(c, &req) {
		return
	}
	if len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, "Items cannot be empty")
		return
	}
	if req.UserID == "" {
		fail(c, http.StatusBadRequest, "User ID is required")
		return
	}

	if _, err := h.store.CreateOrder(c.Request.Context(), req.UserID, req.Items); err != nil {
		failInternal(c, "Error creating order", err)
		return
	}

	h.notifier.NotifyRoles([]string{types.RoleAdmin}, types.EventNewOrder, types.Payload{
		"message": "New Order Received",
	})
	ok(c, http.StatusCreated, "Order placed successfully!")
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if !bind(c, &req) {
		return
	}
	if !slices.Contains(orderUpdateStatuses, req.Status) {
		fail(c, http.StatusBadRequest, "Invalid order status")
		return
	}

	order, err := h.store.UpdateOrderStatus(c.Request.Context(), req.OrderID, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "Order not found!")
		return
	}
	if err != nil {
		failInternal(c, "Error updating order status", err)
		return
	}

	h.notifier.NotifyUsers([]string{order.UserID}, types.EventOrderStatusUpdated, types.Payload{
		"orderId": order.ID,
		"status":  order.Status,
		"message": "Your order status has been updated to " + order.Status,
	})
	ok(c, http.StatusOK, fmt.Sprintf("Order status updated to %s successfully!", order.Status))
}
