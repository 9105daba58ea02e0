package cmd

import (
	"fmt"
	"time"

	"github.com/cqroot/prompt"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"mingle/db"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Delete old read notifications",
		Description: `Deletes read notifications older than the configured age from the
database. Can be run as a cron job with --yes to keep the table size down.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "max-age",
				Usage:   "Delete read notifications older than this many days",
				EnvVars: []string{"MINGLE_TIDY_MAX_AGE"},
				Value:   90,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: func(ctx *cli.Context) error {
			maxAge := ctx.Int("max-age")

			if !ctx.Bool("yes") {
				answer, err := prompt.New().
					Ask(fmt.Sprintf("Delete read notifications older than %d days? Type 'yes' to continue:", maxAge)).
					Input("no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Println("Aborted")
					return nil
				}
			}

			store, err := db.NewStore(ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.TidyNotifications(ctx.Context, time.Duration(maxAge)*24*time.Hour)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"deleted": deleted,
				"maxAge":  maxAge,
			}).Info("Tidied notifications")
			return nil
		},
	}
}
