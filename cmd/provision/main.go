// Command provision applies the InboxHub database schema to a hosted
// record store. It prefers a direct Postgres DSN when one is given, falls
// back to the data API's exec_sql routine, and as a last resort prints the
// SQL for pasting into the provider's SQL console.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/app/store/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "provision",
		Usage: "Apply the InboxHub schema to the record store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Direct Postgres DSN (postgres://...); preferred channel",
				Sources: cli.EnvVars("INBOXHUB_DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "records-url",
				Usage:   "Base URL of the record store data API",
				Sources: cli.EnvVars("INBOXHUB_RECORDS_URL"),
			},
			&cli.StringFlag{
				Name:    "service-key",
				Usage:   "Service-role key for the data API",
				Sources: cli.EnvVars("INBOXHUB_RECORDS_SERVICE_KEY"),
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print the SQL instead of applying it",
			},
		},
		Action: runProvision,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runProvision(ctx context.Context, cmd *cli.Command) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runner := &schema.Runner{
		Log: logger,
		Out: cmd.Writer,
	}

	if !cmd.Bool("print") {
		runner.DatabaseURL = cmd.String("database-url")
		if url := cmd.String("records-url"); url != "" {
			runner.Store = records.New(records.Config{
				BaseURL:    url,
				ServiceKey: cmd.String("service-key"),
				Timeout:    60 * time.Second,
			})
		}
	}

	return runner.Apply(ctx)
}
