package switcher

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

// recorder collects events delivered to a subscription.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newRecordedCache(t *testing.T) (*Cache, *recorder) {
	t.Helper()
	c := NewCache()
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.handle)
	t.Cleanup(unsubscribe)
	return c, rec
}

func TestCache_RouteAndRevert(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetInputForOutput(5, SomeInput(3), connections.Video)

	in, err := c.GetInputForOutput(5, connections.Video)
	if err != nil {
		t.Fatalf("GetInputForOutput error = %v", err)
	}
	if in != SomeInput(3) {
		t.Errorf("GetInputForOutput(5, Video) = %v, want 3", in)
	}
	if got := c.GetOutputsForInput(3, connections.Video); !slices.Equal(got, []int{5}) {
		t.Errorf("GetOutputsForInput(3, Video) = %v, want [5]", got)
	}
	if !c.GetActiveTransmissionState(5, connections.Video) {
		t.Error("GetActiveTransmissionState(5, Video) = false, want true")
	}
	if !c.GetInputActiveState(3, connections.Video) {
		t.Error("GetInputActiveState(3, Video) = false, want true")
	}

	want := []EventKind{EventRouteChanged, EventTransmissionStateChanged, EventActiveInputChanged}
	if got := rec.kinds(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	rec.reset()
	c.SetInputForOutput(5, NoInput(), connections.Video)

	in, _ = c.GetInputForOutput(5, connections.Video)
	if in.IsSet() {
		t.Errorf("GetInputForOutput(5, Video) after clear = %v, want none", in)
	}
	if got := c.GetOutputsForInput(3, connections.Video); len(got) != 0 {
		t.Errorf("GetOutputsForInput(3, Video) after clear = %v, want empty", got)
	}
	if c.GetActiveTransmissionState(5, connections.Video) {
		t.Error("GetActiveTransmissionState(5, Video) after clear = true, want false")
	}
	if got := rec.kinds(); !slices.Equal(got, want) {
		t.Errorf("events after clear = %v, want %v", got, want)
	}
}

func TestCache_RouteEventPayload(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetInputForOutput(5, SomeInput(3), connections.Video)
	c.SetInputForOutput(5, SomeInput(4), connections.Video)

	var routes []Event
	for _, ev := range rec.events {
		if ev.Kind == EventRouteChanged {
			routes = append(routes, ev)
		}
	}
	if len(routes) != 2 {
		t.Fatalf("route events = %d, want 2", len(routes))
	}
	last := routes[1]
	if last.Address != 5 || last.Input != SomeInput(4) || last.Previous != SomeInput(3) {
		t.Errorf("route event = %+v, want output 5 from 3 to 4", last)
	}
	if last.Type != connections.Video {
		t.Errorf("route event type = %v, want Video", last.Type)
	}

	// Output stays transmitting, so no transmission event for the re-route.
	if n := rec.count(EventTransmissionStateChanged); n != 1 {
		t.Errorf("transmission events = %d, want 1", n)
	}
	// Input 3 went idle and input 4 became active.
	if n := rec.count(EventActiveInputChanged); n != 3 {
		t.Errorf("active input events = %d, want 3", n)
	}
}

func TestCache_NoOpWritesAreSilent(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetInputForOutput(5, SomeInput(3), connections.Video)
	c.SetSourceDetectedState(1, connections.Audio, true)
	rec.reset()

	c.SetInputForOutput(5, SomeInput(3), connections.Video)
	c.SetSourceDetectedState(1, connections.Audio, true)
	c.SetSourceDetectedState(2, connections.Audio, false)
	c.SetInputForOutput(7, NoInput(), connections.Audio)

	if len(rec.events) != 0 {
		t.Errorf("no-op writes raised %d events: %v", len(rec.events), rec.kinds())
	}
}

func TestCache_BreakawayDetection(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetSourceDetectedState(1, connections.Audio|connections.Video, true)
	if n := rec.count(EventSourceDetectionChanged); n != 2 {
		t.Errorf("detection events = %d, want 2 (one per flag)", n)
	}

	c.SetSourceDetectedState(1, connections.Audio, false)

	video, err := c.GetSourceDetectedState(1, connections.Video)
	if err != nil || !video {
		t.Errorf("GetSourceDetectedState(1, Video) = %v, %v; want true", video, err)
	}
	audio, err := c.GetSourceDetectedState(1, connections.Audio)
	if err != nil || audio {
		t.Errorf("GetSourceDetectedState(1, Audio) = %v, %v; want false", audio, err)
	}
}

func TestCache_BreakawayRouting(t *testing.T) {
	c := NewCache()

	c.SetInputForOutput(1, SomeInput(2), connections.Audio|connections.Video)
	c.SetInputForOutput(1, SomeInput(4), connections.Audio)

	audio, _ := c.GetInputForOutput(1, connections.Audio)
	video, _ := c.GetInputForOutput(1, connections.Video)
	if audio != SomeInput(4) || video != SomeInput(2) {
		t.Errorf("audio = %v, video = %v; want 4 and 2", audio, video)
	}

	if got := c.GetInputsForOutput(1, connections.Audio|connections.Video); !slices.Equal(got, []int{2, 4}) {
		t.Errorf("GetInputsForOutput(1, Audio|Video) = %v, want [2 4]", got)
	}
	if got := c.GetOutputsForInput(2, connections.Audio); len(got) != 0 {
		t.Errorf("GetOutputsForInput(2, Audio) = %v, want empty", got)
	}
	if got := c.GetOutputsForInput(2, connections.AllTypes); !slices.Equal(got, []int{1}) {
		t.Errorf("GetOutputsForInput(2, all) = %v, want [1]", got)
	}
}

func TestCache_CompoundSingleFlagQueries(t *testing.T) {
	c := NewCache()

	if _, err := c.GetInputForOutput(1, connections.Audio|connections.Video); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetInputForOutput(compound) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := c.GetSourceDetectedState(1, connections.None); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetSourceDetectedState(None) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCache_ReverseIndexConsistency(t *testing.T) {
	c := NewCache()

	c.SetInputForOutput(1, SomeInput(1), connections.Video)
	c.SetInputForOutput(2, SomeInput(1), connections.Video)
	c.SetInputForOutput(3, SomeInput(2), connections.Video)
	c.SetInputForOutput(2, SomeInput(2), connections.Video)
	c.SetInputForOutput(1, NoInput(), connections.Video)

	for _, in := range []int{1, 2} {
		for _, out := range c.GetOutputsForInput(in, connections.Video) {
			got, _ := c.GetInputForOutput(out, connections.Video)
			if got != SomeInput(in) {
				t.Errorf("output %d lists input %d but routes %v", out, in, got)
			}
		}
	}
	if c.GetInputActiveState(1, connections.Video) {
		t.Error("input 1 still active after all its outputs moved")
	}
	if got := c.GetOutputsForInput(2, connections.Video); !slices.Equal(got, []int{2, 3}) {
		t.Errorf("GetOutputsForInput(2, Video) = %v, want [2 3]", got)
	}
	if got := c.GetOutputs(); !slices.Equal(got, []int{2, 3}) {
		t.Errorf("GetOutputs() = %v, want [2 3]", got)
	}
}

func TestCache_ActiveInputFiresOnlyOnEdges(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetInputForOutput(1, SomeInput(9), connections.Audio)
	c.SetInputForOutput(2, SomeInput(9), connections.Audio)
	c.SetInputForOutput(1, NoInput(), connections.Audio)

	if n := rec.count(EventActiveInputChanged); n != 1 {
		t.Errorf("active input events = %d, want 1 (input 9 became active once)", n)
	}

	c.SetInputForOutput(2, NoInput(), connections.Audio)
	if n := rec.count(EventActiveInputChanged); n != 2 {
		t.Errorf("active input events = %d, want 2 after last output cleared", n)
	}
}

func TestCache_ClearNotifies(t *testing.T) {
	c, rec := newRecordedCache(t)

	c.SetSourceDetectedState(1, connections.Video, true)
	c.SetInputForOutput(5, SomeInput(1), connections.Video)
	rec.reset()

	c.Clear()

	if n := rec.count(EventSourceDetectionChanged); n != 1 {
		t.Errorf("detection events = %d, want 1", n)
	}
	if n := rec.count(EventRouteChanged); n != 1 {
		t.Errorf("route events = %d, want 1", n)
	}
	if len(c.GetInputs()) != 0 || len(c.GetOutputs()) != 0 {
		t.Errorf("after Clear inputs = %v, outputs = %v; want empty", c.GetInputs(), c.GetOutputs())
	}

	rec.reset()
	c.Clear()
	if len(rec.events) != 0 {
		t.Errorf("second Clear raised %d events, want 0", len(rec.events))
	}
}

func TestCache_HandlerMayReenter(t *testing.T) {
	c := NewCache()

	var seen []int
	c.Subscribe(func(ev Event) {
		if ev.Kind == EventRouteChanged && ev.Input.IsSet() {
			seen = c.GetOutputsForInput(ev.Input.Address(), ev.Type)
			c.SetSourceDetectedState(ev.Input.Address(), ev.Type, true)
		}
	})

	c.SetInputForOutput(5, SomeInput(3), connections.Video)

	if !slices.Equal(seen, []int{5}) {
		t.Errorf("handler saw outputs %v, want [5]", seen)
	}
	if ok, _ := c.GetSourceDetectedState(3, connections.Video); !ok {
		t.Error("write from handler was not applied")
	}
}

func TestCache_HandlerPanicRecovered(t *testing.T) {
	c := NewCache()
	rec := &recorder{}

	c.Subscribe(func(Event) { panic("boom") })
	c.Subscribe(rec.handle)

	c.SetInputForOutput(1, SomeInput(1), connections.Audio)

	if n := rec.count(EventRouteChanged); n != 1 {
		t.Errorf("second handler route events = %d, want 1", n)
	}
}

func TestCache_Unsubscribe(t *testing.T) {
	c := NewCache()
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.handle)

	c.SetSourceDetectedState(1, connections.Audio, true)
	unsubscribe()
	unsubscribe()
	c.SetSourceDetectedState(1, connections.Audio, false)

	if len(rec.events) != 1 {
		t.Errorf("events = %d, want 1", len(rec.events))
	}
}

func TestCache_Routes(t *testing.T) {
	c := NewCache()
	c.SetInputForOutput(2, SomeInput(1), connections.Audio|connections.Video)
	c.SetInputForOutput(1, SomeInput(3), connections.Usb)

	got := c.Routes(connections.Audio | connections.Usb)
	want := []Route{
		{Output: 1, Input: 3, Type: connections.Usb},
		{Output: 2, Input: 1, Type: connections.Audio},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Routes() = %v, want %v", got, want)
	}
}

func TestCache_ConcurrentWriters(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for out := 1; out <= 16; out++ {
		wg.Add(1)
		go func(out int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.SetInputForOutput(out, SomeInput(i%4), connections.Video)
				_ = c.GetOutputsForInput(i%4, connections.Video)
			}
		}(out)
	}
	wg.Wait()

	// Every output ends on input 99%4 = 3.
	if got := c.GetOutputsForInput(3, connections.Video); len(got) != 16 {
		t.Errorf("GetOutputsForInput(3, Video) = %v, want 16 outputs", got)
	}
	for in := 0; in < 3; in++ {
		if c.GetInputActiveState(in, connections.Video) {
			t.Errorf("input %d still active", in)
		}
	}
}

func TestCache_ConcurrentWritersSameOutput(t *testing.T) {
	c := NewCache()
	const output = 1

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				in := SomeInput(w % 4)
				if w == 7 {
					in = NoInput()
				}
				c.SetInputForOutput(output, in, connections.Video)
			}(w)
		}
		wg.Wait()

		routed, err := c.GetInputForOutput(output, connections.Video)
		if err != nil {
			t.Fatalf("GetInputForOutput error = %v", err)
		}
		if got := c.GetActiveTransmissionState(output, connections.Video); got != routed.IsSet() {
			t.Fatalf("round %d: transmitting = %v with route %v", round, got, routed)
		}
		for in := 0; in < 4; in++ {
			feeds := slices.Contains(c.GetOutputsForInput(in, connections.Video), output)
			want := routed == SomeInput(in)
			if feeds != want {
				t.Fatalf("round %d: input %d feeds output = %v, route is %v", round, in, feeds, routed)
			}
		}
	}
}
