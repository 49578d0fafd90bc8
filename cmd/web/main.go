package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/signal-works/pulse/pkg/server"
	"github.com/signal-works/pulse/pkg/server/metrics"
	"github.com/signal-works/pulse/pkg/services/validator"
	"github.com/signal-works/pulse/pkg/store/duckdb"
	duckdbrun "github.com/signal-works/pulse/pkg/store/duckdb/run"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Pulse",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a pulse config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	settings := &validator.Settings{
		RulesRoot:   "rules",
		SignalsRoot: "signals",
		DbPath:      "pulse.db",
	}
	if cfgPath != "" {
		loaded, err := validator.LoadSettings(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		settings = loaded
		logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	}

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: settings.DbPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	runStore, err := duckdbrun.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	addr := ":8080"
	if host != "" || port != "" {
		addr = net.JoinHostPort(host, port)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Runner:   validator.NewRunner(settings.RunnerConfig()),
			RunStore: runStore,
			Metrics:  metrics.New(),
		},
	})

	return api.Start()
}
