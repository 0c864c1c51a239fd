// Command gmailwatch inspects the Gmail push-notification state stored for
// each account and reports configuration problems: missing refresh tokens,
// lapsed or never-completed watch registrations, and absent history ids.
// It is read-only; renewal is a separate operational concern.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	userstore "github.com/dalemusser/inboxhub/internal/app/store/users"
	"github.com/dalemusser/inboxhub/internal/app/system/gmail"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "gmailwatch",
		Usage: "Diagnose Gmail watch configuration for InboxHub accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "records-url",
				Usage:    "Base URL of the record store data API",
				Required: true,
				Sources:  cli.EnvVars("INBOXHUB_RECORDS_URL"),
			},
			&cli.StringFlag{
				Name:     "service-key",
				Usage:    "Service-role key for the data API",
				Required: true,
				Sources:  cli.EnvVars("INBOXHUB_RECORDS_SERVICE_KEY"),
			},
			&cli.StringFlag{
				Name:    "topic",
				Usage:   "Expected Pub/Sub topic (projects/<id>/topics/<name>); validated when given",
				Sources: cli.EnvVars("INBOXHUB_GMAIL_TOPIC"),
			},
		},
		Action: runDiagnose,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runDiagnose(ctx context.Context, cmd *cli.Command) error {
	if topic := cmd.String("topic"); topic != "" {
		project, name, err := gmail.ParseTopic(topic)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Writer, "topic ok: project=%s name=%s\n", project, name)
	}

	client := records.New(records.Config{
		BaseURL:    cmd.String("records-url"),
		ServiceKey: cmd.String("service-key"),
		Timeout:    30 * time.Second,
	})
	users := userstore.New(client)

	watching, err := users.WatchEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list watch-enabled users: %w", err)
	}

	if len(watching) == 0 {
		fmt.Fprintln(cmd.Writer, "no accounts have Gmail watch enabled")
		return nil
	}

	findings := gmail.Diagnose(watching, time.Now())
	if len(findings) == 0 {
		fmt.Fprintf(cmd.Writer, "all %d watch-enabled accounts look healthy\n", len(watching))
		return nil
	}

	for _, f := range findings {
		fmt.Fprintf(cmd.Writer, "%s: %s\n", f.Email, f.Detail)
	}

	return cli.Exit(fmt.Sprintf("%d finding(s) across %d account(s)", len(findings), len(watching)), 1)
}
