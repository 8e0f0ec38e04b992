package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-av/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Publisher sends MQTT messages. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// RouteState is the retained payload of a switcher route topic.
type RouteState struct {
	Input     switcher.Input `json:"input"`
	Timestamp string         `json:"timestamp"`
}

// SignalState is the retained payload of a switcher signal topic.
type SignalState struct {
	Detected  bool   `json:"detected"`
	Timestamp string `json:"timestamp"`
}

// MQTTPublisher publishes switcher events to MQTT.
type MQTTPublisher struct {
	pub    Publisher
	qos    byte
	topics mqtt.Topics
	logger Logger
	now    func() time.Time
}

// NewMQTTPublisher returns a publisher sending at the given QoS.
func NewMQTTPublisher(pub Publisher, qos byte) *MQTTPublisher {
	return &MQTTPublisher{
		pub:    pub,
		qos:    qos,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for publish failures.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Attach publishes every event src raises until the returned func is called.
func (p *MQTTPublisher) Attach(src Observable) (detach func()) {
	return src.Subscribe(func(ev switcher.Event) {
		if err := p.PublishEvent(src, ev); err != nil {
			p.logger.Warn("publishing routing event failed",
				"device", src.DeviceID(),
				"control", src.ControlID(),
				"kind", string(ev.Kind),
				"error", err,
			)
		}
	})
}

// PublishEvent publishes ev on its event topic and, for route and signal
// changes, updates the matching retained state topic.
func (p *MQTTPublisher) PublishEvent(src Observable, ev switcher.Event) error {
	now := p.now()
	payload, err := json.Marshal(newEventMessage(src, ev, now))
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := p.pub.Publish(p.topics.Event(string(ev.Kind)), payload, p.qos, false); err != nil {
		return err
	}

	ts := now.UTC().Format(time.RFC3339Nano)
	switch ev.Kind {
	case switcher.EventRouteChanged:
		state, err := json.Marshal(RouteState{Input: ev.Input, Timestamp: ts})
		if err != nil {
			return fmt.Errorf("encoding route state: %w", err)
		}
		topic := p.topics.SwitcherRoute(src.DeviceID(), src.ControlID(), ev.Address, ev.Type.String())
		return p.pub.Publish(topic, state, p.qos, true)

	case switcher.EventSourceDetectionChanged:
		state, err := json.Marshal(SignalState{Detected: ev.State, Timestamp: ts})
		if err != nil {
			return fmt.Errorf("encoding signal state: %w", err)
		}
		topic := p.topics.SwitcherSignal(src.DeviceID(), src.ControlID(), ev.Address, ev.Type.String())
		return p.pub.Publish(topic, state, p.qos, true)
	}
	return nil
}
