package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notepress/internal"
	pkgconfig "github.com/starford/notepress/pkg/config"
)

var version = "dev"

type runner func(ctx context.Context, opts ...internal.Option) error

func action(run runner) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if cmd.IsSet("watch") {
			cfg.Watch.Enabled = cmd.Bool("watch")
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}

		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "notepress",
		Usage:   "Publish a Markdown vault as a static site with a manifest and folder indexes",
		Version: version,
		Action:  action(internal.Run),
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
				Usage:  "Serve the site and the API, republishing on vault changes when watching",
				Action: action(internal.Run),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Republish when Markdown files in the vault change",
						Sources: cli.EnvVars("APP_WATCH"),
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Publish the vault once and print the result as JSON",
				Action: action(internal.RunPublish),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the publishing tools over MCP on stdio",
				Action: action(internal.RunMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
