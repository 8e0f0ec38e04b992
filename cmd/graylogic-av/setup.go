package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-av/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-av/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/export"
)

// loadConnections imports the configured XML connection list when asked to
// (or when the database is still empty) and returns the stored connections.
func loadConnections(ctx context.Context, cfg config.RoutingConfig, repo connections.Repository, log *logging.Logger) ([]*connections.Connection, error) {
	stored, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading connections: %w", err)
	}

	if cfg.ConnectionsFile == "" || (len(stored) > 0 && !cfg.ReplaceOnImport) {
		return stored, nil
	}

	imported, err := connections.LoadSettingsFile(cfg.ConnectionsFile)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", cfg.ConnectionsFile, err)
	}
	if err := repo.ReplaceAll(ctx, imported); err != nil {
		return nil, fmt.Errorf("storing imported connections: %w", err)
	}
	log.Info("connections imported", "file", cfg.ConnectionsFile, "count", len(imported), "replaced", len(stored))

	return repo.List(ctx)
}

// buildRegistry creates the declared controls. Switchers are loopback
// switchers until a hardware driver is attached. It also returns the
// controls that raise switcher events, for the exporters.
func buildRegistry(declared []config.ControlConfig, log *logging.Logger) (*controls.Registry, []export.Observable, error) {
	registry := controls.NewRegistry()
	registry.SetLogger(log.Component("controls"))
	var observables []export.Observable

	for _, cc := range declared {
		inputs, err := buildPorts(cc.Inputs)
		if err != nil {
			return nil, nil, fmt.Errorf("control %d:%d inputs: %w", cc.Device, cc.Control, err)
		}
		outputs, err := buildPorts(cc.Outputs)
		if err != nil {
			return nil, nil, fmt.Errorf("control %d:%d outputs: %w", cc.Device, cc.Control, err)
		}

		var c controls.Control
		switch cc.Kind {
		case config.ControlKindSource:
			c = controls.NewSource(cc.Device, cc.Control, cc.Name, outputs)
		case config.ControlKindDestination:
			d := controls.NewDestination(cc.Device, cc.Control, cc.Name, inputs)
			observables = append(observables, d)
			c = d
		case config.ControlKindSwitcher:
			sw := controls.NewCachedSwitcher(cc.Device, cc.Control, cc.Name, inputs, outputs, nil)
			sw.SetLogger(log.Component("switcher").With("device", cc.Device, "control", cc.Control))
			observables = append(observables, sw)
			c = sw
		default:
			return nil, nil, fmt.Errorf("control %d:%d: unknown kind %q", cc.Device, cc.Control, cc.Kind)
		}

		if err := registry.Register(c); err != nil {
			return nil, nil, err
		}
	}
	return registry, observables, nil
}

func buildPorts(ports []config.PortConfig) ([]controls.Port, error) {
	out := make([]controls.Port, 0, len(ports))
	for _, p := range ports {
		t, err := connections.ParseConnectionType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("port %d: %w", p.Address, err)
		}
		out = append(out, controls.Port{Address: p.Address, Name: p.Name, Type: t})
	}
	return out, nil
}
