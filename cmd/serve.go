package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/server"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if port := os.Getenv("PORT"); port != "" {
			if cfg.Port, err = strconv.Atoi(port); err != nil {
				return fmt.Errorf("invalid PORT %q: %w", port, err)
			}
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		gin.SetMode(cfg.GinMode)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		srv, err := server.New(cfg, backend)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(ctx) }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// openBackend selects where visitors' theme choices live.
func openBackend(ctx context.Context, cfg *config.Config) (theme.Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return theme.NewMemoryBackend(), nil
	case config.StoreRedis:
		b, err := theme.NewRedisBackend(cfg.RedisURL, cfg.Retention)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		log.Printf("Theme preferences stored in redis")
		return b, nil
	default:
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening preference database: %w", err)
		}
		if cfg.VisitorSalt != "" {
			db.WithSalt(cfg.VisitorSalt)
		} else {
			log.Printf("No visitor_salt configured; stored visitor hashes will change on restart")
		}
		log.Printf("Theme preferences stored in %s", cfg.DBPath)
		go cleanupLoop(ctx, db, cfg.Retention)
		return db, nil
	}
}

// cleanupLoop drops preferences untouched for longer than retention, once
// at startup and then daily.
func cleanupLoop(ctx context.Context, db *store.DB, retention time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if _, err := db.Cleanup(ctx, retention); err != nil {
			log.Printf("Error cleaning up old preferences: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
