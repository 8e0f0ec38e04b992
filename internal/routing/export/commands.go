package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-av/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
)

// commandTimeout bounds the hardware work of a single route command.
const commandTimeout = 30 * time.Second

// ErrInvalidCommand is returned for route commands that cannot be decoded.
var ErrInvalidCommand = errors.New("export: invalid route command")

// Router executes route operations. *graph.RoutingGraph satisfies it.
type Router interface {
	Route(ctx context.Context, op controls.RouteOperation) ([]*connections.Path, error)
}

// Subscriber registers MQTT message handlers. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// RouteCommand is a route request received over MQTT.
//
//	{"id":"abc","source":{"device":1,"control":1,"address":1},
//	 "destination":{"device":9,"control":1,"address":1},"type":"Audio, Video"}
type RouteCommand struct {
	ID string `json:"id,omitempty"`
	controls.RouteOperation
}

// RouteResult is published for every command handled.
type RouteResult struct {
	ID    string              `json:"id,omitempty"`
	OK    bool                `json:"ok"`
	Error string              `json:"error,omitempty"`
	Paths []*connections.Path `json:"paths,omitempty"`
}

// CommandHandler executes route commands and publishes their results.
type CommandHandler struct {
	router Router
	pub    Publisher
	qos    byte
	topics mqtt.Topics
	logger Logger
}

// NewCommandHandler returns a handler routing through router and replying
// through pub.
func NewCommandHandler(router Router, pub Publisher, qos byte) *CommandHandler {
	return &CommandHandler{router: router, pub: pub, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (h *CommandHandler) SetLogger(logger Logger) {
	h.logger = logger
}

// Register subscribes the handler to the route command topic.
func (h *CommandHandler) Register(sub Subscriber) error {
	if err := sub.Subscribe(h.topics.RouteCommand(), h.qos, h.Handle); err != nil {
		return fmt.Errorf("subscribing to route commands: %w", err)
	}
	return nil
}

// Handle decodes and executes one command. It has the mqtt.MessageHandler
// signature. The result is always published; the returned error reports
// commands that failed.
func (h *CommandHandler) Handle(_ string, payload []byte) error {
	var cmd RouteCommand
	result := RouteResult{}

	err := json.Unmarshal(payload, &cmd)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	} else {
		result.ID = cmd.ID
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		result.Paths, err = h.router.Route(ctx, cmd.RouteOperation)
		cancel()
	}

	if err != nil {
		result.Error = err.Error()
		h.logger.Warn("route command failed", "id", cmd.ID, "error", err)
	} else {
		result.OK = true
		h.logger.Info("route command executed", "id", cmd.ID, "operation", cmd.RouteOperation.String())
	}

	data, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return errors.Join(err, fmt.Errorf("encoding route result: %w", marshalErr))
	}
	if pubErr := h.pub.Publish(h.topics.RouteCommandResult(), data, h.qos, false); pubErr != nil {
		return errors.Join(err, pubErr)
	}
	return err
}
