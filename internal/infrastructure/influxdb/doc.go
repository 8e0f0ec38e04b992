// Package influxdb records AV routing telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection checks and a batching,
// non-blocking writer. The export package turns switcher events into points.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("influx write", "error", err) })
package influxdb
