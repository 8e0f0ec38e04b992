package export

import (
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// MeasurementRoutingEvents is the InfluxDB measurement for switcher events.
const MeasurementRoutingEvents = "routing_events"

// PointWriter queues time-series points. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time)
}

// MetricsRecorder writes switcher events as InfluxDB points.
//
// Tags: device, control, kind, type. Fields: address and state, plus input
// and previous when the event carries them.
type MetricsRecorder struct {
	w   PointWriter
	now func() time.Time
}

// NewMetricsRecorder returns a recorder writing to w.
func NewMetricsRecorder(w PointWriter) *MetricsRecorder {
	return &MetricsRecorder{w: w, now: time.Now}
}

// Attach records every event src raises until the returned func is called.
func (m *MetricsRecorder) Attach(src Observable) (detach func()) {
	return src.Subscribe(func(ev switcher.Event) {
		m.Record(src, ev)
	})
}

// Record writes one event.
func (m *MetricsRecorder) Record(src Observable, ev switcher.Event) {
	tags := map[string]string{
		"device":  strconv.Itoa(src.DeviceID()),
		"control": strconv.Itoa(src.ControlID()),
		"kind":    string(ev.Kind),
		"type":    ev.Type.String(),
	}
	fields := map[string]any{
		"address": ev.Address,
		"state":   ev.State,
	}
	if addr, ok := ev.Input.Get(); ok {
		fields["input"] = addr
	}
	if addr, ok := ev.Previous.Get(); ok {
		fields["previous"] = addr
	}
	m.w.WritePoint(MeasurementRoutingEvents, tags, fields, m.now())
}
