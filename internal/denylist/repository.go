// Package denylist stores moderation decisions that hide listings at read
// time. Entries are keyed by the listing identifier they suppress (hash).
package denylist

import (
	"context"

	"github.com/starford/torlist/internal/models"
)

// Repository is the persistence contract for denylist entries.
//
// Lookups return an apperr NotFound error when nothing matches. FindByID
// returns MalformedID when the backend cannot parse id at all.
type Repository interface {
	Insert(ctx context.Context, hash, reason string) (models.DenylistEntry, error)
	FindAll(ctx context.Context) ([]models.DenylistEntry, error)
	FindByHash(ctx context.Context, hash string) (models.DenylistEntry, error)
	FindByID(ctx context.Context, id string) (models.DenylistEntry, error)
	Save(ctx context.Context, e models.DenylistEntry) (models.DenylistEntry, error)
	Remove(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Verify the backends satisfy Repository at compile time.
var (
	_ Repository = (*SQLite)(nil)
	_ Repository = (*Mongo)(nil)
)
