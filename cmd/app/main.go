package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/torlist/internal"
	pkgconfig "github.com/starford/torlist/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func dumpEntries(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.DumpEntries(ctx, cmd.Bool("raw"), cmd.String("category"), internal.WithConfig(cfg))
}

func dumpDenylist(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.DumpDenylist(ctx, internal.WithConfig(cfg))
}

func sign(_ context.Context, cmd *cli.Command) error {
	return internal.Sign(cmd.String("wif"), cmd.String("message"))
}

func main() {
	cmd := &cli.Command{
		Name:   "torlist",
		Usage:  "Moderated, append-only directory of signed site listings",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: runMCP,
			},
			{
				Name:   "entries",
				Usage:  "Print listings as JSON",
				Action: dumpEntries,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw", Usage: "Include denylisted listings"},
					&cli.StringFlag{Name: "category", Usage: "Only listings in this category"},
				},
			},
			{
				Name:   "blacklist",
				Usage:  "Print denylist entries as JSON",
				Action: dumpDenylist,
			},
			{
				Name:   "sign",
				Usage:  "Sign a listing entry with a WIF private key",
				Action: sign,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "wif", Usage: "Private key in wallet import format", Required: true},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Entry to sign", Required: true},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
