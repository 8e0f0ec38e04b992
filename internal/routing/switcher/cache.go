package switcher

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

// Logger defines the logging interface used by the Cache.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// key addresses one port for one single connection-type flag.
type key struct {
	address int
	flag    connections.ConnectionType
}

// Route is one routed output, as returned by Cache.Routes.
type Route struct {
	Output int                        `json:"output"`
	Input  int                        `json:"input"`
	Type   connections.ConnectionType `json:"type"`
}

// Cache holds the observed and commanded switching state of one device.
//
// Invariants, per single flag:
//   - reverse is the exact inverse of routes
//   - transmitting[o] is true iff routes has an entry for o
//
// Unknown keys read as "not detected" and "no route".
type Cache struct {
	detectedMu sync.RWMutex
	detected   map[key]bool

	routesMu sync.RWMutex
	routes   map[key]int

	transmitMu   sync.RWMutex
	transmitting map[key]bool

	reverseMu sync.RWMutex
	reverse   map[key]map[int]struct{}

	handlersMu sync.RWMutex
	handlers   []subscriber
	nextID     uint64

	logger Logger
}

type subscriber struct {
	id uint64
	fn Handler
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		detected:     make(map[key]bool),
		routes:       make(map[key]int),
		transmitting: make(map[key]bool),
		reverse:      make(map[key]map[int]struct{}),
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger used to report handler panics.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// Subscribe registers fn for every future event and returns a function that
// removes it. Handlers are called in subscription order.
func (c *Cache) Subscribe(fn Handler) (unsubscribe func()) {
	c.handlersMu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers = append(c.handlers, subscriber{id: id, fn: fn})
	c.handlersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.handlersMu.Lock()
			defer c.handlersMu.Unlock()
			c.handlers = slices.DeleteFunc(c.handlers, func(s subscriber) bool {
				return s.id == id
			})
		})
	}
}

// SetSourceDetectedState records whether input detects a source signal, for
// every flag in t. An event is raised per flag whose value actually changed.
func (c *Cache) SetSourceDetectedState(input int, t connections.ConnectionType, state bool) {
	for _, flag := range t.Flags() {
		k := key{address: input, flag: flag}

		c.detectedMu.Lock()
		changed := c.detected[k] != state
		if changed {
			if state {
				c.detected[k] = true
			} else {
				delete(c.detected, k)
			}
		}
		c.detectedMu.Unlock()

		if changed {
			c.notify(Event{
				Kind:    EventSourceDetectionChanged,
				Address: input,
				Type:    flag,
				State:   state,
			})
		}
	}
}

// GetSourceDetectedState reports whether input detects a source for the
// single flag t. Returns ErrInvalidArgument for compound types.
func (c *Cache) GetSourceDetectedState(input int, t connections.ConnectionType) (bool, error) {
	if err := requireSingleFlag(t); err != nil {
		return false, err
	}

	c.detectedMu.RLock()
	defer c.detectedMu.RUnlock()
	return c.detected[key{address: input, flag: t}], nil
}

// SetInputForOutput routes input to output for every flag in t.
// Passing NoInput() clears the output.
//
// Per flag, an identical assignment is a no-op. Otherwise the route is
// stored and EventRouteChanged raised; EventTransmissionStateChanged follows
// if the output started or stopped transmitting, and EventActiveInputChanged
// if the old input stopped feeding any output or the new input started.
func (c *Cache) SetInputForOutput(output int, input Input, t connections.ConnectionType) {
	for _, flag := range t.Flags() {
		if events := c.setInputForOutput(output, input, flag); len(events) > 0 {
			c.notify(events...)
		}
	}
}

func (c *Cache) setInputForOutput(output int, input Input, flag connections.ConnectionType) []Event {
	k := key{address: output, flag: flag}

	// Routes.
	c.routesMu.Lock()
	oldAddr, hadOld := c.routes[k]
	previous := Input{address: oldAddr, set: hadOld}
	if previous == input {
		c.routesMu.Unlock()
		return nil
	}
	if input.IsSet() {
		c.routes[k] = input.Address()
	} else {
		delete(c.routes, k)
	}
	c.routesMu.Unlock()

	events := []Event{{
		Kind:     EventRouteChanged,
		Address:  output,
		Type:     flag,
		Input:    input,
		Previous: previous,
	}}

	// The derived sections follow the route stored now, not input: a
	// concurrent writer to the same output may have replaced it already.

	// Transmission.
	c.transmitMu.Lock()
	wasTransmitting := c.transmitting[k]
	nowTransmitting := c.currentRoute(k).IsSet()
	if nowTransmitting {
		c.transmitting[k] = true
	} else {
		delete(c.transmitting, k)
	}
	c.transmitMu.Unlock()

	if wasTransmitting != nowTransmitting {
		events = append(events, Event{
			Kind:    EventTransmissionStateChanged,
			Address: output,
			Type:    flag,
			State:   nowTransmitting,
		})
	}

	// Reverse index.
	c.reverseMu.Lock()
	current := c.currentRoute(k)
	for _, stale := range []Input{previous, input} {
		if !stale.IsSet() || stale == current {
			continue
		}
		if c.removeReverse(key{address: stale.Address(), flag: flag}, output) {
			events = append(events, Event{
				Kind:    EventActiveInputChanged,
				Address: stale.Address(),
				Type:    flag,
				State:   false,
			})
		}
	}
	if current.IsSet() && c.addReverse(key{address: current.Address(), flag: flag}, output) {
		events = append(events, Event{
			Kind:    EventActiveInputChanged,
			Address: current.Address(),
			Type:    flag,
			State:   true,
		})
	}
	c.reverseMu.Unlock()

	return events
}

// currentRoute reads the stored route for k. Callers may hold transmitMu or
// reverseMu; routesMu is never held while taking either.
func (c *Cache) currentRoute(k key) Input {
	c.routesMu.RLock()
	defer c.routesMu.RUnlock()
	addr, ok := c.routes[k]
	return Input{address: addr, set: ok}
}

// removeReverse drops output from the input's set and reports whether the
// input stopped feeding any output. Must be called with reverseMu held.
func (c *Cache) removeReverse(in key, output int) bool {
	outputs, ok := c.reverse[in]
	if !ok {
		return false
	}
	if _, member := outputs[output]; !member {
		return false
	}
	delete(outputs, output)
	if len(outputs) > 0 {
		return false
	}
	delete(c.reverse, in)
	return true
}

// addReverse adds output to the input's set and reports whether the input
// started feeding its first output. Must be called with reverseMu held.
func (c *Cache) addReverse(in key, output int) bool {
	outputs, ok := c.reverse[in]
	if !ok {
		outputs = make(map[int]struct{})
		c.reverse[in] = outputs
	}
	if _, member := outputs[output]; member {
		return false
	}
	outputs[output] = struct{}{}
	return len(outputs) == 1
}

// GetInputForOutput returns the input routed to output for the single flag t.
// Returns ErrInvalidArgument for compound types.
func (c *Cache) GetInputForOutput(output int, t connections.ConnectionType) (Input, error) {
	if err := requireSingleFlag(t); err != nil {
		return NoInput(), err
	}

	c.routesMu.RLock()
	defer c.routesMu.RUnlock()
	addr, ok := c.routes[key{address: output, flag: t}]
	if !ok {
		return NoInput(), nil
	}
	return SomeInput(addr), nil
}

// GetInputsForOutput returns every input routed to output across the flags
// in t, sorted and de-duplicated.
func (c *Cache) GetInputsForOutput(output int, t connections.ConnectionType) []int {
	c.routesMu.RLock()
	defer c.routesMu.RUnlock()

	var inputs []int
	for _, flag := range t.Flags() {
		if addr, ok := c.routes[key{address: output, flag: flag}]; ok {
			inputs = append(inputs, addr)
		}
	}
	slices.Sort(inputs)
	return slices.Compact(inputs)
}

// GetOutputsForInput returns every output fed by input across the flags in
// t, sorted and de-duplicated.
func (c *Cache) GetOutputsForInput(input int, t connections.ConnectionType) []int {
	c.reverseMu.RLock()
	defer c.reverseMu.RUnlock()

	var outputs []int
	for _, flag := range t.Flags() {
		for out := range c.reverse[key{address: input, flag: flag}] {
			outputs = append(outputs, out)
		}
	}
	slices.Sort(outputs)
	return slices.Compact(outputs)
}

// GetActiveTransmissionState reports whether output transmits any flag in t.
func (c *Cache) GetActiveTransmissionState(output int, t connections.ConnectionType) bool {
	c.transmitMu.RLock()
	defer c.transmitMu.RUnlock()

	for _, flag := range t.Flags() {
		if c.transmitting[key{address: output, flag: flag}] {
			return true
		}
	}
	return false
}

// GetInputActiveState reports whether input feeds any output for any flag in t.
func (c *Cache) GetInputActiveState(input int, t connections.ConnectionType) bool {
	c.reverseMu.RLock()
	defer c.reverseMu.RUnlock()

	for _, flag := range t.Flags() {
		if len(c.reverse[key{address: input, flag: flag}]) > 0 {
			return true
		}
	}
	return false
}

// GetOutputs returns every output that currently has a route, sorted.
func (c *Cache) GetOutputs() []int {
	c.routesMu.RLock()
	defer c.routesMu.RUnlock()

	outputs := make([]int, 0, len(c.routes))
	for k := range c.routes {
		outputs = append(outputs, k.address)
	}
	slices.Sort(outputs)
	return slices.Compact(outputs)
}

// GetInputs returns every input that currently detects a source or feeds an
// output, sorted.
func (c *Cache) GetInputs() []int {
	var inputs []int

	c.detectedMu.RLock()
	for k := range c.detected {
		inputs = append(inputs, k.address)
	}
	c.detectedMu.RUnlock()

	c.reverseMu.RLock()
	for k := range c.reverse {
		inputs = append(inputs, k.address)
	}
	c.reverseMu.RUnlock()

	slices.Sort(inputs)
	return slices.Compact(inputs)
}

// Routes returns every routed output for the flags in t, ordered by output
// then flag.
func (c *Cache) Routes(t connections.ConnectionType) []Route {
	c.routesMu.RLock()
	out := make([]Route, 0, len(c.routes))
	for k, in := range c.routes {
		if t.Has(k.flag) {
			out = append(out, Route{Output: k.address, Input: in, Type: k.flag})
		}
	}
	c.routesMu.RUnlock()

	slices.SortFunc(out, func(a, b Route) int {
		if a.Output != b.Output {
			return a.Output - b.Output
		}
		return int(a.Type) - int(b.Type)
	})
	return out
}

// Clear resets the cache to idle by calling the normal setters with default
// values for every stored key, so subscribers receive the same events as
// they would if the device had genuinely gone idle.
func (c *Cache) Clear() {
	c.detectedMu.RLock()
	detected := make([]key, 0, len(c.detected))
	for k := range c.detected {
		detected = append(detected, k)
	}
	c.detectedMu.RUnlock()

	c.routesMu.RLock()
	routed := make([]key, 0, len(c.routes))
	for k := range c.routes {
		routed = append(routed, k)
	}
	c.routesMu.RUnlock()

	sortKeys(detected)
	sortKeys(routed)

	for _, k := range detected {
		c.SetSourceDetectedState(k.address, k.flag, false)
	}
	for _, k := range routed {
		c.SetInputForOutput(k.address, NoInput(), k.flag)
	}
}

// notify delivers events to a snapshot of the subscribers. Must be called
// with no cache lock held.
func (c *Cache) notify(events ...Event) {
	c.handlersMu.RLock()
	subs := slices.Clone(c.handlers)
	c.handlersMu.RUnlock()

	for _, ev := range events {
		for _, s := range subs {
			c.dispatch(s.fn, ev)
		}
	}
}

func (c *Cache) dispatch(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("switcher event handler panic recovered",
				"kind", ev.Kind,
				"address", ev.Address,
				"panic", r,
			)
		}
	}()
	fn(ev)
}

func requireSingleFlag(t connections.ConnectionType) error {
	if !t.IsSingleFlag() {
		return fmt.Errorf("%w: %q is not a single connection type flag", ErrInvalidArgument, t)
	}
	return nil
}

func sortKeys(keys []key) {
	slices.SortFunc(keys, func(a, b key) int {
		if a.address != b.address {
			return a.address - b.address
		}
		return int(a.flag) - int(b.flag)
	})
}
