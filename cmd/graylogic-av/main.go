// Gray Logic AV - audio/video signal routing service.
//
// It loads the connection graph of an AV installation, answers path queries
// and executes routes across the switchers in it, exposing the results over
// an HTTP API, MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-av/migrations"

	"github.com/nerrad567/gray-logic-av/internal/api"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/export"
	"github.com/nerrad567/gray-logic-av/internal/routing/graph"
)

// Set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts every component in order and blocks until ctx is cancelled.
// Components are shut down in reverse order by deferred calls.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic AV",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // nothing left to log to
	log.Info("configuration loaded", "path", configPath, "site", cfg.Site.ID)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	repo := connections.NewSQLiteRepository(db.DB)
	conns, err := loadConnections(ctx, cfg.Routing, repo, log)
	if err != nil {
		return err
	}
	collection, err := connections.NewCollection(conns...)
	if err != nil {
		return fmt.Errorf("building connection graph: %w", err)
	}

	registry, observables, err := buildRegistry(cfg.Routing.Controls, log)
	if err != nil {
		return fmt.Errorf("building control registry: %w", err)
	}

	routing := graph.New(collection, registry)
	routing.SetLogger(log.Component("graph"))
	log.Info("routing graph loaded",
		"connections", collection.Len(),
		"controls", registry.Len(),
	)

	health := map[string]api.HealthChecker{"database": db}

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := startMQTT(cfg.MQTT, routing, observables, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		health["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		recorder := export.NewMetricsRecorder(influxClient)
		for _, o := range observables {
			defer recorder.Attach(o)()
		}
		health["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log.Component("api"),
		Graph:      routing,
		Repository: repo,
		Health:     health,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_AV_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startMQTT connects to the broker, publishes events from every observable
// control and accepts route commands.
func startMQTT(cfg config.MQTTConfig, routing *graph.RoutingGraph, observables []export.Observable, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() { log.Info("MQTT connected") })
	client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

	qos := byte(cfg.QoS)
	publisher := export.NewMQTTPublisher(client, qos)
	publisher.SetLogger(log.Component("export"))
	for _, o := range observables {
		publisher.Attach(o)
	}

	commands := export.NewCommandHandler(routing, client, qos)
	commands.SetLogger(log.Component("commands"))
	if err := commands.Register(client); err != nil {
		return nil, errors.Join(err, client.Close())
	}

	log.Info("MQTT ready",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
		"subscriptions", client.SubscriptionCount(),
	)
	return client, nil
}
