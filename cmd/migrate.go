package cmd

import (
	"mingle/db"

	"github.com/urfave/cli/v2"
)

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Usage:   "SQLite database file",
		EnvVars: []string{"MINGLE_DATABASE"},
		Value:   "mingle.db",
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			return db.Migrate(ctx.String("database"))
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			return db.Rollback(ctx.String("database"))
		},
	}
}
