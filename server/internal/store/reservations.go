package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reservation statuses.
const (
	ReservationPending   = "Pending"
	ReservationAccepted  = "Accepted"
	ReservationDeclined  = "Declined"
	ReservationCancelled = "Cancelled"
)

// Reservation is a table booking.
type Reservation struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Size   int    `json:"size"`
	Status string `json:"status"`
}

// ReservationFilter narrows ListReservations. Zero fields do not filter.
type ReservationFilter struct {
	UserID        string
	Statuses      []string
	ExcludeStatus []string
}

// ReservationDetails are the fields staff may change on a booking.
type ReservationDetails struct {
	Date   string
	Time   string
	Size   int
	Status string
}

const reservationColumns = `id, user_id, date, time, size, status`

// CreateReservation stores r with a fresh id. An empty status becomes Pending.
func (s *Store) CreateReservation(ctx context.Context, r Reservation) (Reservation, error) {
	r.ID = uuid.NewString()
	if r.Status == "" {
		r.Status = ReservationPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Date, r.Time, r.Size, r.Status, s.now().UTC(),
	)
	if err != nil {
		return Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

// GetReservation returns the reservation with id, or ErrNotFound.
func (s *Store) GetReservation(ctx context.Context, id string) (Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return r, nil
}

// ListReservations returns the reservations matching f, oldest first.
func (s *Store) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1 = 1`
	var args []any
	if f.UserID != "" {
		q += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	clause, statusArgs := statusClause(f.Statuses, f.ExcludeStatus)
	q += clause + ` ORDER BY created_at, id`
	args = append(args, statusArgs...)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("list reservations: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateReservationStatus sets the status of the reservation with id.
func (s *Store) UpdateReservationStatus(ctx context.Context, id, status string) (Reservation, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return Reservation{}, fmt.Errorf("update reservation %s: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return Reservation{}, err
	}
	return s.GetReservation(ctx, id)
}

// UpdateReservation replaces the date, time, size and status of the
// reservation with id.
func (s *Store) UpdateReservation(ctx context.Context, id string, d ReservationDetails) (Reservation, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET date = ?, time = ?, size = ?, status = ? WHERE id = ?`,
		d.Date, d.Time, d.Size, d.Status, id)
	if err != nil {
		return Reservation{}, fmt.Errorf("update reservation %s: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return Reservation{}, err
	}
	return s.GetReservation(ctx, id)
}

func scanReservation(sc scanner) (Reservation, error) {
	var r Reservation
	err := sc.Scan(&r.ID, &r.UserID, &r.Date, &r.Time, &r.Size, &r.Status)
	return r, err
}
