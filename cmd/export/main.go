package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/phishguard/phishguard/internal/export/sqlite"
	"github.com/phishguard/phishguard/internal/setup"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "export",
		Usage: "Export the security event audit log to a SQLite snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Output directory for snapshot files",
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Value:   30,
				Usage:   "How many days of events to include",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize application with required dependencies
			app, err := setup.InitializeApp(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Cleanup()

			outDir := c.String("output")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			since := time.Now().AddDate(0, 0, -int(c.Int("days")))

			events, err := app.DB.Model().Event().GetRecent(ctx, since)
			if err != nil {
				return fmt.Errorf("failed to load events: %w", err)
			}

			path, err := sqlite.New(outDir).Export(events)
			if err != nil {
				return fmt.Errorf("failed to export events: %w", err)
			}

			log.Printf("Exported %d events to %s", len(events), path)

			return nil
		},
	}

	return app.Run(context.Background(), os.Args)
}
