// Package logging provides structured logging for the AV routing service.
//
// It wraps log/slog with default fields (service, version), level
// filtering, and a choice of JSON or text output to stdout, stderr or a file.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "file"     # stdout, stderr, file
//	  file: "/var/log/graylogic/av.log"
//
// Components receive a child logger tagged with their name:
//
//	logger := logging.New(cfg.Logging, version)
//	defer logger.Close()
//	registry.SetLogger(logger.Component("controls"))
//
// Never log secrets such as the MQTT password or InfluxDB token.
package logging
