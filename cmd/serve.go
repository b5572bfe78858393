package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dkravets/orgview/internal/config"
	"github.com/dkravets/orgview/internal/db"
	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/live"
	"github.com/dkravets/orgview/internal/position"
	"github.com/dkravets/orgview/internal/search"
	"github.com/dkravets/orgview/internal/server"
	"github.com/dkravets/orgview/internal/tree"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orgview server",
	Long:  `Starts the orgview REST server: position and custom-field management, tree materialization, and a websocket change feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// .env overrides are optional; missing file is fine.
		_ = godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "orgview.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.AllowAllOrigins,
		}, database)

		registerAllRoutes(srv, cfg)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "orgview v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)

		return srv.Start()
	},
}

// registerAllRoutes wires every feature package onto the server's router.
func registerAllRoutes(srv *server.Server, cfg *config.Config) {
	r := srv.Router()
	database := srv.Database()

	hub := live.NewHub()
	live.RegisterRoutes(r, hub)

	fieldStore := fields.NewStore(database)
	fields.RegisterRoutes(r, fieldStore, hub)

	posStore := position.NewStore(database)
	position.RegisterRoutes(r, &position.Handler{
		Store:     posStore,
		Fields:    fieldStore,
		Hub:       hub,
		PageLimit: cfg.PageLimit,
		Search: func(set fields.Set, positions []position.Position, query string) []position.Position {
			return search.NewMatcher(set).Filter(positions, query)
		},
	})

	treeStore := tree.NewStore(database)
	tree.RegisterRoutes(r, &tree.Service{
		Trees:     treeStore,
		Positions: posStore,
		Fields:    fieldStore,
		Locale:    cfg.LocaleTag(),
		Hub:       hub,
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
