package api

import (
	"github.com/tableside/tableside/server/internal/notify"
	"github.com/tableside/tableside/server/internal/store"
)

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// StatsResponse is the payload for GET /ws/stats.
type StatsResponse = notify.RegistryStats

// messageResponse is the body of every non-list response.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// --- request bodies ---------------------------------------------------------

type newMenuItemRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Available   *bool   `json:"available"`
	Image       string  `json:"image"`
}

type updateMenuItemRequest struct {
	ItemID      string   `json:"itemId"`
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Available   *bool    `json:"available"`
	Image       *string  `json:"image"`
}

type deleteMenuItemRequest struct {
	ItemID string `json:"itemId"`
}

type newOrderRequest struct {
	Items  []store.OrderItem `json:"items"`
	UserID string            `json:"userId"`
}

type updateOrderStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type newReservationRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Size   int    `json:"size"`
	UserID string `json:"userId"`
}

type updateReservationStatusRequest struct {
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
}

type updateReservationRequest struct {
	ReservationID string `json:"reservationId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Size          int    `json:"size"`
	Status        string `json:"status"`
}
