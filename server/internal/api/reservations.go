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

var (
	reservationStatusUpdates = []string{
		store.ReservationAccepted,
		store.ReservationDeclined,
		store.ReservationCancelled,
	}
	reservationDetailStatuses = []string{
		store.ReservationAccepted,
		store.ReservationDeclined,
	}
)

func (h *Handler) listReservations(c *gin.Context, f store.ReservationFilter, notFound, failMsg string) {
	out, err := h.store.ListReservations(c.Request.Context(), f)
	if err != nil {
		failInternal(c, failMsg, err)
		return
	}
	if len(out) == 0 {
		fail(c, http.StatusNotFound, notFound)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getUserReservations(c *gin.Context) {
	h.listReservations(c, store.ReservationFilter{
		UserID:        c.Param("userId"),
		ExcludeStatus: []string{store.ReservationCancelled, store.ReservationDeclined},
	}, "No reservations found for this user", "Error retrieving user reservations")
}

func (h *Handler) getPendingReservations(c *gin.Context) {
	h.listReservations(c, store.ReservationFilter{Statuses: []string{store.ReservationPending}},
		"No pending reservations found!", "Error retrieving reservations")
}

func (h *Handler) getReservations(c *gin.Context) {
	h.listReservations(c, store.ReservationFilter{},
		"No reservations found!", "Error retrieving reservations")
}

func (h *Handler) newReservation(c *gin.Context) {
	var req newReservationRequest
	if !bind(c, &req) {
		return
	}
	if req.Date == "" || req.Time == "" || req.Size == 0 || req.UserID == "" {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	r, err := h.store.CreateReservation(c.Request.Context(), store.Reservation{
		UserID: req.UserID,
		Date:   req.Date,
		Time:   req.Time,
		Size:   req.Size,
	})
	if err != nil {
		failInternal(c, "Error creating reservation", err)
		return
	}

	h.notifier.NotifyRoles([]string{types.RoleAdmin}, types.EventNewReservation, types.Payload{
		"reservationId": r.ID,
		"message":       "New Reservation Received",
	})
	ok(c, http.StatusCreated, "Reservation created successfully!")
}

func (h *Handler) updateReservationStatus(c *gin.Context) {
	var req updateReservationStatusRequest
	if !bind(c, &req) {
		return
	}
	if !slices.Contains(reservationStatusUpdates, req.Status) {
		fail(c, http.StatusBadRequest, "Invalid reservation status")
		return
	}

	r, err := h.store.UpdateReservationStatus(c.Request.Context(), req.ReservationID, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "Reservation not found!")
		return
	}
	if err != nil {
		failInternal(c, "Error updating reservation status", err)
		return
	}

	switch r.Status {
	case store.ReservationAccepted:
		h.notifier.NotifyRoles([]string{types.RoleUser}, types.EventReservationAccepted, types.Payload{
			"reservationId": r.ID,
			"message":       "Reservation Accepted",
		})
	case store.ReservationDeclined:
		h.notifier.NotifyRoles([]string{types.RoleUser}, types.EventReservationDeclined, types.Payload{
			"reservationId": r.ID,
			"message":       "Reservation Declined",
		})
	case store.ReservationCancelled:
		h.notifier.NotifyRoles([]string{types.RoleAdmin}, types.EventReservationCancelled, types.Payload{
			"reservationId": r.ID,
			"userId":        r.UserID,
			"message":       "User cancelled reservation",
		})
	}
	ok(c, http.StatusOK, fmt.Sprintf("Reservation status updated to %s successfully!", r.Status))
}

func (h *Handler) updateReservation(c *gin.Context) {
	var req updateReservationRequest
	if !bind(c, &req) {
		return
	}
	if req.ReservationID == "" || req.Date == "" || req.Time == "" || req.Size == 0 {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !slices.Contains(reservationDetailStatuses, req.Status) {
		fail(c, http.StatusBadRequest, "Invalid reservation status")
		return
	}

	r, err := h.store.UpdateReservation(c.Request.Context(), req.ReservationID, store.ReservationDetails{
		Date:   req.Date,
		Time:   req.Time,
		Size:   req.Size,
		Status: req.Status,
	})
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "Reservation not found!")
		return
	}
	if err != nil {
		failInternal(c, "Error updating reservation", err)
		return
	}

	h.notifier.NotifyRoles([]string{types.RoleUser}, types.EventReservationDetailsEdit, types.Payload{
		"reservationId": r.ID,
		"message":       "Reservations Details Updated by Staff",
	})
	ok(c, http.StatusOK, "Reservation updated successfully!")
}
