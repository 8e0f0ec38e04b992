// Package export forwards switcher cache events to the outside world and
// accepts route requests from it.
//
// MQTTPublisher publishes every event under graylogic/av/event/{kind} and
// keeps retained per-output route and per-input signal topics current.
// MetricsRecorder writes the same events to InfluxDB as routing_events
// points. CommandHandler executes route requests received over MQTT.
//
// Both exporters attach to anything that raises switcher events:
//
//	detach := publisher.Attach(sw)
//	defer detach()
package export
