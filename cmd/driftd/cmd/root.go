package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/driftkit/drift/pkg/config"
	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/driftd"
	"github.com/driftkit/drift/pkg/driftd/webapi"
	"github.com/driftkit/drift/pkg/graphdb"
	"github.com/driftkit/drift/pkg/graphdb/stor"
	"github.com/driftkit/drift/pkg/upstream"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "driftd",
	Short: "Daemon for tracking dirty state across an entity graph",
	Long: `driftd tracks which entities in a graph have uncommitted changes. It keeps a
baseline snapshot of every dependent relationship, evaluates dirtiness through
those relationships, and exposes commit, rollback, and change notification
operations over a local HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c := config.MustLoadFromDriftDotenv()
		if err := Run(ctx, args, c); err != nil {
			log.Fatalf("driftd: %s", err)
		}
	},
}

func Run(c context.Context, args []string, cfg config.Configer) error {
	schemaPath := cfg.MustGetKey("DRIFT_SCHEMA_PATH")
	schema, err := driftd.LoadSchemaFile(schemaPath)
	if err != nil {
		return err
	}

	db, err := connectToDB(cfg)
	if err != nil {
		return err
	}

	stors := stor.NewGormStors(db)
	graph := stor.NewTrackedGraph(schema, stors)
	tracker := dirty.NewTracker(schema, graph)

	client := upstream.NewClient(
		cfg.MustGetKey("DRIFT_UPSTREAM_URL"),
		cfg.GetKey("DRIFT_UPSTREAM_TOKEN"))
	committer := driftd.NewCommitter(schema, stors, tracker, client)

	hub := webapi.NewTransitionHub()
	go hub.Run()
	tracker.Subscribe(hub.Publish)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupRoutes(RouteDependencies{
		e:         e,
		config:    cfg,
		schema:    schema,
		stors:     stors,
		graph:     graph,
		tracker:   tracker,
		committer: committer,
		hub:       hub,
	})

	addr := cfg.GetKeyWithDefault("DRIFTD_ADDR", "localhost:1360")
	go func() {
		if err := e.Start(addr); err != nil {
			log.Fatalf("Unable to start web server: %s", err)
		}
	}()

	log.Infof("driftd listening on %s", addr)

	waitForSignal()

	shutdownCtx, cancel := context.WithTimeout(c, 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// connectToDB picks the database from config: MySQL when DRIFT_DB_HOST is set,
// otherwise an in-memory sqlite instance for local development. Migrations run
// in both cases so a fresh database is usable immediately.
func connectToDB(cfg config.Configer) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.GetKey("DRIFT_DB_HOST") != "" {
		db = graphdb.MustConnectToDB()
	} else {
		log.Infof("DRIFT_DB_HOST not set, using in-memory sqlite")
		if db, err = graphdb.ConnectToSqliteDB(graphdb.SqliteInMemoryDSN); err != nil {
			return nil, err
		}
	}

	if err := graphdb.RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Got %s signal, shutting down...", sig)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
