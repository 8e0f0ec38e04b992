package mqtt

import "fmt"

// TopicPrefix is the root of every topic the routing service uses.
const TopicPrefix = "graylogic/av"

// Topics builds the routing service's MQTT topics.
//
//	topic := mqtt.Topics{}.SwitcherRoute(12, 1, 3, "Video")
//	// graylogic/av/switcher/12/1/route/3/Video
type Topics struct{}

// Status is the service online/offline topic, also used for the LWT.
//
// Example: graylogic/av/status
func (Topics) Status() string {
	return TopicPrefix + "/status"
}

// SwitcherRoute carries the retained input currently routed to one output
// of a switcher for a single connection type flag.
//
// Example: graylogic/av/switcher/12/1/route/3/Video
func (Topics) SwitcherRoute(device, control, output int, flag string) string {
	return fmt.Sprintf("%s/switcher/%d/%d/route/%d/%s", TopicPrefix, device, control, output, flag)
}

// SwitcherSignal carries the retained signal-detected state of a switcher input.
//
// Example: graylogic/av/switcher/12/1/signal/4/Audio
func (Topics) SwitcherSignal(device, control, input int, flag string) string {
	return fmt.Sprintf("%s/switcher/%d/%d/signal/%d/%s", TopicPrefix, device, control, input, flag)
}

// Event is the topic for one kind of routing event.
//
// Example: graylogic/av/event/route_changed
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, kind)
}

// RouteCommand is where control software requests a route.
//
// Example: graylogic/av/command/route
func (Topics) RouteCommand() string {
	return TopicPrefix + "/command/route"
}

// RouteCommandResult is where the outcome of each route command is published.
//
// Example: graylogic/av/command/route/result
func (Topics) RouteCommandResult() string {
	return TopicPrefix + "/command/route/result"
}
