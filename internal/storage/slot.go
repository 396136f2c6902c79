// Package storage persists small per-visitor values ("slots") that must
// survive a page reload, such as the current cart line item.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the slot is empty.
var ErrNotFound = errors.New("slot not found")

// SlotStore is a key/value store namespaced by visitor session.
type SlotStore interface {
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	Set(ctx context.Context, sessionID, name string, value []byte) error
	Delete(ctx context.Context, sessionID, name string) error
}
