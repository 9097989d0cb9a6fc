package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MenuItem is one dish on the menu.
type MenuItem struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
	Image       string  `json:"image"`
}

// MenuItemUpdate carries the fields to change. Nil fields are left as they are.
type MenuItemUpdate struct {
	Name        *string
	Category    *string
	Description *string
	Price       *float64
	Available   *bool
	Image       *string
}

const menuColumns = `id, name, category, description, price, available, image`

// ListMenuItems returns every menu item in insertion order.
func (s *Store) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list menu items: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// GetMenuItem returns the item with id, or ErrNotFound.
func (s *Store) GetMenuItem(ctx context.Context, id string) (MenuItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id)
	m, err := scanMenuItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return MenuItem{}, ErrNotFound
	}
	if err != nil {
		return MenuItem{}, fmt.Errorf("get menu item %s: %w", id, err)
	}
	return m, nil
}

// CreateMenuItem inserts m with a fresh id and returns the stored item.
func (s *Store) CreateMenuItem(ctx context.Context, m MenuItem) (MenuItem, error) {
	m.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_items (`+menuColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Category, m.Description, m.Price, m.Available, m.Image, s.now().UTC(),
	)
	if err != nil {
		return MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return m, nil
}

// UpdateMenuItem applies u to the item with id and returns the result. Only
// the non-nil fields of u are written, so concurrent updates to different
// fields do not overwrite each other.
func (s *Store) UpdateMenuItem(ctx context.Context, id string, u MenuItemUpdate) (MenuItem, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Category != nil {
		set("category", *u.Category)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Price != nil {
		set("price", *u.Price)
	}
	if u.Available != nil {
		set("available", *u.Available)
	}
	if u.Image != nil {
		set("image", *u.Image)
	}
	if len(sets) == 0 {
		return s.GetMenuItem(ctx, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE menu_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return MenuItem{}, fmt.Errorf("update menu item %s: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return MenuItem{}, err
	}
	return s.GetMenuItem(ctx, id)
}

// DeleteMenuItem removes the item with id, or returns ErrNotFound.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete menu item %s: %w", id, err)
	}
	return checkAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(sc scanner) (MenuItem, error) {
	var m MenuItem
	err := sc.Scan(&m.ID, &m.Name, &m.Category, &m.Description, &m.Price, &m.Available, &m.Image)
	return m, err
}
