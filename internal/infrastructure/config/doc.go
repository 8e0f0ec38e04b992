// Package config handles loading and validating the AV routing service
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GRAYLOGIC_AV_* environment variables
//   - Validation of required fields and declared controls
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	for _, c := range cfg.Routing.Controls {
//	    fmt.Println(c.Device, c.Control, c.Kind)
//	}
package config
