// Package store persists the restaurant's menu items, orders and reservations
// in SQLite through database/sql and the pure-Go modernc.org/sqlite driver.
//
// Open(ctx, path) connects and applies the schema; ":memory:" gives a private
// in-process database, which the tests use. Ids are random UUIDs. Order items
// are stored as JSON text on the order row.
//
// Lookups that find nothing return ErrNotFound; callers check it with
// errors.Is. List methods return an empty slice, not an error, when nothing
// matches.
package store
