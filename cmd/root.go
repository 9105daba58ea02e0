package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "mingle",
		Usage: "A social interaction backend",
		Description: `A social backend serving posts, reposts, comments, communities and
		notifications over an HTTP API backed by an SQLite database.

		Posts carry denormalized interaction counters that always mirror the
		membership sets stored next to them. Reposts freeze the original post
		into an immutable snapshot. Communities are computed from user interest
		tags against a configurable topic taxonomy.

		Flags can generally be set via environment variables, e.g.:

		--database => MINGLE_DATABASE=mingle.db
		--port => MINGLE_PORT=3000
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
