package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtfisher/esp-collector/pkg/database"
	"github.com/gtfisher/esp-collector/pkg/live"
	"github.com/gtfisher/esp-collector/pkg/metrics"
	"github.com/gtfisher/esp-collector/pkg/puller"
	"github.com/gtfisher/esp-collector/pkg/puller/esp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start sampling and the HTTP server",
	Long:  `Poll the ESP sensor every SAMPLE_RATE seconds and serve readings over HTTP.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd.Context())
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Rebuild the live buffer and extrema from the retained history
	readings, err := store.All(cmd.Context())
	if err != nil {
		if errors.Is(err, database.ErrCorruptStore) {
			return fmt.Errorf("refusing to start with a corrupt store: %w", err)
		}
		return fmt.Errorf("failed to load readings: %w", err)
	}
	state := live.NewState(cfg.ReadingsLimit)
	state.Seed(readings)
	log.Printf("✓ Loaded %d readings", state.Len())

	m := metrics.New()

	registryManager := InitRegistryManager(cmd.Context(), cfg, m)

	sampler := puller.NewSampler(
		esp.NewClient(cfg.ESPURL),
		store,
		state,
		cfg.SampleRate,
		puller.WithExporter(registryManager.Dispatcher),
		puller.WithMetrics(m),
	)

	routeManager := NewRouteManager(cfg, store, state, registryManager, m)
	routeManager.Setup()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	sampler.Start()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received")

		sampler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting esp-collector on %s, sampling %s", addr, cfg.ESPURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sampler.Stop()
		registryManager.Close(5 * time.Second)
		return fmt.Errorf("failed to start server: %w", err)
	}

	registryManager.Close(5 * time.Second)
	log.Println("✓ Shutdown complete")
	return nil
}
