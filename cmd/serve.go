package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"mingle/communities"
	"mingle/config"
	"mingle/db"
	"mingle/lang"
	"mingle/models"
	"mingle/notify"
	"mingle/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the mingle HTTP API",
		Description: `Starts the HTTP server and the notification fan-out consumer.

Runs pending database migrations first, then serves the API on the
configured port. Interaction events produced by request handlers are
consumed by the notifier and written as notification rows.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "SQLite database file",
				EnvVars: []string{"MINGLE_DATABASE"},
				Value:   "mingle.db",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"MINGLE_PORT"},
				Value:   3000,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to community catalog file, embedded default when empty",
				EnvVars: []string{"MINGLE_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("could not run migrations: %w", err)
			}

			store, err := db.NewStore(database)
			if err != nil {
				return err
			}
			defer store.Close()

			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}
			resolver := communities.NewResolver(communities.NewCatalog(cfg), store)

			// Channel for interaction events produced by request handlers
			events := make(chan models.InteractionEvent, 1024)
			broadcaster := server.NewBroadcaster()

			notifier := notify.New(store, resolver, events)
			notifierCtx, stopNotifier := context.WithCancel(ctx.Context)

			app := server.Server(&server.ServerConfig{
				Store:       store,
				Resolver:    resolver,
				Detector:    lang.NewDetector(),
				Events:      events,
				Broadcaster: broadcaster,
			})

			go func() {
				log.Info("Starting notifier")
				notifier.Subscribe(notifierCtx)
			}()

			// Graceful shutdown
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Error("Error shutting down server", err)
				}
				stopNotifier()
				broadcaster.Shutdown()
			}()

			log.WithFields(log.Fields{
				"port":     ctx.Int("port"),
				"database": database,
			}).Info("Starting server")

			return app.Listen(fmt.Sprintf(":%d", ctx.Int("port")))
		},
	}
}
