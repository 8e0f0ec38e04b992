package influxdb

import "errors"

var (
	// ErrNotConnected is returned when the client has been closed.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps asynchronous write errors passed to SetOnError.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when InfluxDB is disabled.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
