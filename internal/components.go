package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/torlist/internal/admission"
	"github.com/starford/torlist/internal/denylist"
	"github.com/starford/torlist/internal/directory"
	"github.com/starford/torlist/internal/logstore"
	"github.com/starford/torlist/internal/models"
	"github.com/starford/torlist/internal/sigverify"
)

// components are the services every entry point shares.
type components struct {
	log       *logstore.Log
	ipfs      *logstore.IPFSObjects
	repo      denylist.Repository
	denylist  *denylist.Service
	admission *admission.Service
	directory *directory.Service
}

// wiring carries the optional callbacks Run installs.
type wiring struct {
	onAdmit func(models.Listing)
	hooks   denylist.Hooks
}

func buildComponents(ctx context.Context, cfg *Config, logger *slog.Logger, w wiring) (*components, error) {
	c := &components{}

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	var objects logstore.ObjectStore
	switch cfg.Store.Backend {
	case StoreBackendIPFS:
		c.ipfs = logstore.NewIPFSObjects(cfg.Store.IPFS.Host, cfg.Store.IPFS.Timeout)
		if !c.ipfs.Alive() {
			logger.Warn("ipfs daemon not reachable yet", slog.String("host", cfg.Store.IPFS.Host))
		}
		objects = c.ipfs
	default:
		fsObjects, err := logstore.NewFSObjects(filepath.Join(cfg.Store.Path, "objects"))
		if err != nil {
			return nil, fmt.Errorf("init objects: %w", err)
		}
		objects = fsObjects
	}

	log, err := logstore.Open(cfg.Store.Path, objects, logger)
	if err != nil {
		return nil, fmt.Errorf("init log: %w", err)
	}
	c.log = log

	switch cfg.Denylist.Backend {
	case DenylistBackendMongo:
		repo, err := denylist.OpenMongo(ctx, denylist.MongoConfig{
			URI:        cfg.Denylist.Mongo.URI,
			Database:   cfg.Denylist.Mongo.Database,
			Collection: cfg.Denylist.Mongo.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("init denylist: %w", err)
		}
		c.repo = repo
	default:
		repo, err := denylist.OpenSQLite(cfg.Denylist.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init denylist: %w", err)
		}
		c.repo = repo
	}

	c.denylist = denylist.NewService(c.repo, logger, w.hooks)

	var admOpts []admission.Option
	if w.onAdmit != nil {
		admOpts = append(admOpts, admission.WithAdmitHook(w.onAdmit))
	}
	c.admission = admission.NewService(c.log, sigverify.New(), logger, admOpts...)
	c.directory = directory.NewService(c.log, c.denylist)

	return c, nil
}

// ready reports whether the backing stores answer.
func (c *components) ready(ctx context.Context) error {
	if err := c.denylist.Ping(ctx); err != nil {
		return err
	}
	if c.ipfs != nil && !c.ipfs.Alive() {
		return errors.New("ipfs daemon unreachable")
	}
	return nil
}

func (c *components) Close() error {
	if c.repo == nil {
		return nil
	}
	return c.repo.Close()
}
