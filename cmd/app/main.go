// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pathshala/dataguard/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "dataguard",
		Usage:   "On-device data protection and consent layer",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply pending store schema migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations(commands.DefaultIO())
				},
			},
			{
				Name:  "key-status",
				Usage: "Show the encryption key's age and rotation status",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunKeyStatus(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "rotate-key",
				Usage: "Replace the encryption key (old ciphertext becomes unreadable)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateKey(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "consent-status",
				Usage: "Show the current consent record",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunConsentStatus(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "export-data",
				Usage: "Export all stored user data as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "",
						Usage:   "Output file path (stdout when omitted)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunExportData(ctx, cmd.String("output"), commands.DefaultIO())
				},
			},
			{
				Name:  "erase-all",
				Usage: "Permanently delete all stored data and key material",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Value:   false,
						Usage:   "Skip the interactive confirmation",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEraseAll(ctx, cmd.Bool("yes"), commands.DefaultIO())
				},
			},
			{
				Name:  "serve-metrics",
				Usage: "Serve the Prometheus metrics endpoint (requires METRICS_ENABLED=true)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServeMetrics(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "prune-access-log",
				Usage: "Remove access log entries older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   0,
						Usage:   "Retention in days (0 uses the configured retention)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPruneAccessLog(ctx, int(cmd.Int("days")), commands.DefaultIO())
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
