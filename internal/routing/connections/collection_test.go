package connections

import (
	"errors"
	"slices"
	"testing"
)

func testCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := NewCollection(
		MustConnection(3, NewEndpoint(2, 1, 1), NewEndpoint(3, 1, 1), Video),
		MustConnection(1, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Audio|Video),
		MustConnection(2, NewEndpoint(2, 1, 2), NewEndpoint(4, 1, 1), Audio),
	)
	if err != nil {
		t.Fatalf("NewCollection error = %v", err)
	}
	return c
}

func connIDs(conns []*Connection) []int {
	ids := make([]int, len(conns))
	for i, c := range conns {
		ids[i] = c.ID()
	}
	return ids
}

func TestCollection_AllSortedByID(t *testing.T) {
	c := testCollection(t)
	if got := connIDs(c.All()); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("All() ids = %v, want [1 2 3]", got)
	}
}

func TestCollection_AddDuplicate(t *testing.T) {
	c := testCollection(t)
	err := c.Add(MustConnection(1, NewEndpoint(9, 9, 9), NewEndpoint(8, 8, 8), Usb))
	if !errors.Is(err, ErrConnectionExists) {
		t.Errorf("Add(duplicate) error = %v, want ErrConnectionExists", err)
	}
	if err := c.Add(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Add(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCollection_OutboundInbound(t *testing.T) {
	c := testCollection(t)

	conn, ok, err := c.Outbound(NewEndpoint(1, 1, 1), Video)
	if err != nil || !ok || conn.ID() != 1 {
		t.Errorf("Outbound(1:1:1, Video) = %v, %v, %v; want connection 1", conn, ok, err)
	}

	_, ok, err = c.Outbound(NewEndpoint(2, 1, 2), Video)
	if err != nil || ok {
		t.Errorf("Outbound(2:1:2, Video) ok = %v, err = %v; want no match", ok, err)
	}

	conn, ok, err = c.Inbound(NewEndpoint(4, 1, 1), Audio)
	if err != nil || !ok || conn.ID() != 2 {
		t.Errorf("Inbound(4:1:1, Audio) = %v, %v, %v; want connection 2", conn, ok, err)
	}

	_, _, err = c.Outbound(NewEndpoint(1, 1, 1), Audio|Video)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Outbound(compound) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCollection_FromControl(t *testing.T) {
	c := testCollection(t)

	out, err := c.OutboundFromControl(ControlKey{Device: 2, Control: 1}, Audio)
	if err != nil {
		t.Fatalf("OutboundFromControl error = %v", err)
	}
	if got := connIDs(out); !slices.Equal(got, []int{2}) {
		t.Errorf("OutboundFromControl(2:1, Audio) = %v, want [2]", got)
	}

	in, err := c.InboundToControl(ControlKey{Device: 2, Control: 1}, Video)
	if err != nil {
		t.Fatalf("InboundToControl error = %v", err)
	}
	if got := connIDs(in); !slices.Equal(got, []int{1}) {
		t.Errorf("InboundToControl(2:1, Video) = %v, want [1]", got)
	}
}

func TestCollection_RemoveAndReplace(t *testing.T) {
	c := testCollection(t)

	if !c.Remove(2) {
		t.Error("Remove(2) = false, want true")
	}
	if c.Remove(2) {
		t.Error("Remove(2) twice = true, want false")
	}

	dup := []*Connection{
		MustConnection(5, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Usb),
		MustConnection(5, NewEndpoint(1, 1, 2), NewEndpoint(2, 1, 2), Usb),
	}
	if err := c.Replace(dup); !errors.Is(err, ErrConnectionExists) {
		t.Errorf("Replace(duplicates) error = %v, want ErrConnectionExists", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after failed Replace = %d, want 2", c.Len())
	}

	if err := c.Replace(dup[:1]); err != nil {
		t.Fatalf("Replace error = %v", err)
	}
	if got := connIDs(c.All()); !slices.Equal(got, []int{5}) {
		t.Errorf("All() after Replace = %v, want [5]", got)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestCollection_OneConnectionPerPortAndFlag(t *testing.T) {
	display := NewEndpoint(9, 1, 1)

	tests := []struct {
		name  string
		conns []*Connection
		want  error
	}{
		{"two arrivals at one port", []*Connection{
			MustConnection(3, NewEndpoint(1, 1, 1), display, Video),
			MustConnection(6, NewEndpoint(5, 1, 2), display, Video),
		}, ErrPortInUse},
		{"two departures from one port", []*Connection{
			MustConnection(1, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Audio|Video),
			MustConnection(2, NewEndpoint(1, 1, 1), NewEndpoint(3, 1, 1), Video),
		}, ErrPortInUse},
		{"different flags share a port", []*Connection{
			MustConnection(1, NewEndpoint(2, 1, 1), display, Video),
			MustConnection(2, NewEndpoint(4, 1, 1), display, Audio),
		}, nil},
		{"input and output with one address", []*Connection{
			MustConnection(1, NewEndpoint(4, 1, 1), NewEndpoint(5, 1, 1), Video),
			MustConnection(2, NewEndpoint(5, 1, 1), display, Video),
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCollection(tt.conns...); !errors.Is(err, tt.want) {
				t.Errorf("NewCollection() error = %v, want %v", err, tt.want)
			}

			c, err := NewCollection()
			if err != nil {
				t.Fatalf("NewCollection() error = %v", err)
			}
			if err := c.Replace(tt.conns); !errors.Is(err, tt.want) {
				t.Errorf("Replace() error = %v, want %v", err, tt.want)
			}
			if tt.want != nil && c.Len() != 0 {
				t.Errorf("Len() after rejected Replace = %d, want 0", c.Len())
			}
		})
	}
}
