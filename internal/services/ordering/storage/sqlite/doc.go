// Package sqlite provides a transactional SQLite order store.
//
// Each order is one row keyed by its identifier, with items in a child table.
// Status updates run in a single transaction per order, so concurrent updates
// to different orders never clobber each other.
package sqlite
