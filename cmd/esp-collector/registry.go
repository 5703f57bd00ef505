package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gtfisher/esp-collector/pkg/export"
	"github.com/gtfisher/esp-collector/pkg/metrics"
)

// RegistryManager owns the export targets and the dispatcher feeding them
type RegistryManager struct {
	Registry   *export.Registry
	Dispatcher *export.Dispatcher
	CSV        *export.CSVRecorder
	Hub        *export.Hub

	closers []func()
}

// InitRegistryManager registers every configured export target.
// Optional targets that fail to initialize are logged and skipped.
func InitRegistryManager(ctx context.Context, cfg *Config, m *metrics.Metrics) *RegistryManager {
	registry := export.NewRegistry()

	rm := &RegistryManager{
		Registry: registry,
		CSV:      export.NewCSVRecorder(cfg.CSVDir()),
		Hub:      export.NewHub(cfg.AllowOrigin),
	}

	registry.Register(rm.CSV)
	registry.Register(rm.Hub)
	rm.closers = append(rm.closers, rm.Hub.Close)

	if cfg.MQTTBroker != "" {
		clientID := fmt.Sprintf("esp-collector-%d", os.Getpid())
		recorder, err := export.NewMQTTRecorder(cfg.MQTTBroker, clientID, cfg.MQTTTopic)
		if err != nil {
			log.Printf("⚠ MQTT export disabled: %v", err)
		} else {
			registry.Register(recorder)
			rm.closers = append(rm.closers, recorder.Close)
		}
	}

	if cfg.Influx.URL != "" {
		recorder, err := export.NewInfluxRecorder(cfg.Influx)
		if err != nil {
			log.Printf("⚠ InfluxDB export disabled: %v", err)
		} else {
			registry.Register(recorder)
			rm.closers = append(rm.closers, recorder.Close)
		}
	}

	if cfg.SpreadsheetID != "" {
		sink, err := export.NewSheetsSink(ctx, cfg.ServiceAccountFile, cfg.SpreadsheetID, cfg.SpreadsheetRange)
		if err != nil {
			log.Printf("⚠ Spreadsheet export disabled: %v", err)
		} else {
			registry.RegisterSink(sink)
		}
	}

	for _, rec := range registry.Recorders() {
		log.Printf("✓ Registered recorder: %s", rec.Name())
	}
	for _, sink := range registry.Sinks() {
		log.Printf("✓ Registered hourly sink: %s", sink.Name())
	}

	rm.Dispatcher = export.NewDispatcher(registry,
		export.WithRetries(cfg.ExportRetries),
		export.WithConnectivity(export.NewDNSConnectivity(cfg.ConnectivityHost)),
		export.WithMetrics(m),
	)

	return rm
}

// Close waits briefly for in-flight exports, then releases the targets
func (rm *RegistryManager) Close(timeout time.Duration) {
	if !rm.Dispatcher.Wait(timeout) {
		log.Printf("⚠ Exports still running after %s, closing anyway", timeout)
	}
	for _, closeFn := range rm.closers {
		closeFn()
	}
}
