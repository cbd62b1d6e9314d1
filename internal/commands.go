package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/starford/torlist/internal/mcpserver"
	"github.com/starford/torlist/internal/models"
	"github.com/starford/torlist/internal/sigverify"
)

// stderrLogger is used by commands whose stdout carries data.
func stderrLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func (a *application) open(ctx context.Context) (*components, *slog.Logger, error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	logger := stderrLogger(a.config)
	c, err := buildComponents(ctx, a.config, logger, wiring{})
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	c, logger, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.admission, c.directory, c.denylist).ServeStdio()
}

// DumpEntries writes listings as a JSON array. raw skips the denylist;
// category, if set, restricts the visible listings to that category.
func DumpEntries(ctx context.Context, raw bool, category string, opts ...Option) error {
	app := newApplication(opts)
	c, _, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	var entries []models.Listing
	switch {
	case raw:
		entries, err = c.directory.ListRaw(ctx)
	case category != "":
		entries, err = c.directory.ListByCategory(ctx, category)
	default:
		entries, err = c.directory.ListAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	return writeIndented(app, entries)
}

// DumpDenylist writes every denylist entry as a JSON array.
func DumpDenylist(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	c, _, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.denylist.List(ctx)
	if err != nil {
		return fmt.Errorf("list denylist: %w", err)
	}
	return writeIndented(app, entries)
}

// SignResult is what Sign prints: the fields a submitter needs besides
// entry, description and category.
type SignResult struct {
	SLPAddress string `json:"slpAddress"`
	Signature  string `json:"signature"`
}

// Sign signs message with the WIF-encoded key and prints the owner address
// and signature. It needs no config.
func Sign(wif, message string, opts ...Option) error {
	app := newApplication(opts)

	key, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return fmt.Errorf("decode wif: %w", err)
	}
	addr, err := sigverify.EncodeCashAddress(sigverify.PrefixSLP, sigverify.AddressOf(key.PrivKey, key.CompressPubKey))
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	sig, err := sigverify.SignMessage(key.PrivKey, key.CompressPubKey, message)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	return writeIndented(app, SignResult{SLPAddress: addr, Signature: sig})
}

func writeIndented(app *application, v any) error {
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
