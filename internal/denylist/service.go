package denylist

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/torlist/internal/apperr"
	"github.com/starford/torlist/internal/metrics"
	"github.com/starford/torlist/internal/models"
)

// Messages returned with successful mutations.
const (
	MsgCreated = "Site added to the blacklist"
	MsgUpdated = "Entry successfully updated"
)

// Draft is a new entry as submitted by a moderator.
type Draft struct {
	Hash   string
	Reason string
}

// Patch is a partial update. Nil fields are left untouched; provided fields
// must be non-empty.
type Patch struct {
	Hash   *string
	Reason *string
}

// Hooks are notified after successful mutations.
type Hooks struct {
	Created func(models.DenylistEntry)
	Updated func(models.DenylistEntry)
	Deleted func(models.DenylistEntry)
}

// Service implements the moderation operations over a Repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
	hooks  Hooks
}

// NewService creates a Service. hooks may be zero.
func NewService(repo Repository, logger *slog.Logger, hooks Hooks) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, hooks: hooks}
}

func requiredString(field string) validation.Rule {
	return validation.Required.Error("Property '" + field + "' must be a string!")
}

// Create validates d and inserts it.
func (s *Service) Create(ctx context.Context, d Draft) (models.DenylistEntry, error) {
	const op = "denylist: create"
	if err := validation.Validate(d.Hash, requiredString("hash")); err != nil {
		return models.DenylistEntry{}, apperr.Validation(op, err.Error())
	}
	if err := validation.Validate(d.Reason, requiredString("reason")); err != nil {
		return models.DenylistEntry{}, apperr.Validation(op, err.Error())
	}

	e, err := s.repo.Insert(ctx, d.Hash, d.Reason)
	if err != nil {
		return models.DenylistEntry{}, err
	}
	metrics.DenylistMutations.WithLabelValues("create").Inc()
	s.logger.Info("denylist: created", slog.String("id", e.ID), slog.String("hash", e.Hash))
	if s.hooks.Created != nil {
		s.hooks.Created(e)
	}
	return e, nil
}

// List returns every entry.
func (s *Service) List(ctx context.Context) ([]models.DenylistEntry, error) {
	return s.repo.FindAll(ctx)
}

// Resolve finds an entry by hash, falling back to its id. An id the backend
// cannot parse is treated as not found.
func (s *Service) Resolve(ctx context.Context, key string) (models.DenylistEntry, error) {
	const op = "denylist: resolve"
	e, err := s.repo.FindByHash(ctx, key)
	if err == nil {
		return e, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return models.DenylistEntry{}, err
	}

	e, err = s.repo.FindByID(ctx, key)
	switch {
	case err == nil:
		return e, nil
	case apperr.Is(err, apperr.KindNotFound), apperr.Is(err, apperr.KindMalformedID):
		return models.DenylistEntry{}, apperr.NotFound(op)
	default:
		return models.DenylistEntry{}, err
	}
}

// Update merges p into a previously resolved entry and saves it.
func (s *Service) Update(ctx context.Context, e models.DenylistEntry, p Patch) (models.DenylistEntry, error) {
	const op = "denylist: update"
	if p.Hash != nil {
		if err := validation.Validate(*p.Hash, requiredString("hash")); err != nil {
			return models.DenylistEntry{}, apperr.Validation(op, err.Error())
		}
		e.Hash = *p.Hash
	}
	if p.Reason != nil {
		if err := validation.Validate(*p.Reason, requiredString("reason")); err != nil {
			return models.DenylistEntry{}, apperr.Validation(op, err.Error())
		}
		e.Reason = *p.Reason
	}

	saved, err := s.repo.Save(ctx, e)
	if err != nil {
		return models.DenylistEntry{}, err
	}
	metrics.DenylistMutations.WithLabelValues("update").Inc()
	s.logger.Info("denylist: updated", slog.String("id", saved.ID))
	if s.hooks.Updated != nil {
		s.hooks.Updated(saved)
	}
	return saved, nil
}

// Delete removes a previously resolved entry.
func (s *Service) Delete(ctx context.Context, e models.DenylistEntry) error {
	if err := s.repo.Remove(ctx, e.ID); err != nil {
		return err
	}
	metrics.DenylistMutations.WithLabelValues("delete").Inc()
	s.logger.Info("denylist: deleted", slog.String("id", e.ID), slog.String("hash", e.Hash))
	if s.hooks.Deleted != nil {
		s.hooks.Deleted(e)
	}
	return nil
}

// Hashes returns the hash of every entry, the shape the read filter needs.
func (s *Service) Hashes(ctx context.Context) ([]string, error) {
	entries, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Hash
	}
	return out, nil
}

// Ping checks the repository is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
