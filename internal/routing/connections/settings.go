package connections

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Settings is the persisted XML form of a connection list:
//
//	<Connections>
//	  <Connection id="1">
//	    <SourceDevice>10</SourceDevice>
//	    <SourceControl>1</SourceControl>
//	    <SourceAddress>1</SourceAddress>
//	    <DestinationDevice>20</DestinationDevice>
//	    <DestinationControl>1</DestinationControl>
//	    <DestinationAddress>3</DestinationAddress>
//	    <ConnectionType>Audio, Video</ConnectionType>
//	    <RoomRestrictions><Id>5</Id></RoomRestrictions>
//	  </Connection>
//	</Connections>
type Settings struct {
	XMLName     xml.Name             `xml:"Connections"`
	Connections []ConnectionSettings `xml:"Connection"`
}

// ConnectionSettings is one persisted connection.
type ConnectionSettings struct {
	ID                       int            `xml:"id,attr"`
	SourceDevice             int            `xml:"SourceDevice"`
	SourceControl            int            `xml:"SourceControl"`
	SourceAddress            int            `xml:"SourceAddress"`
	DestinationDevice        int            `xml:"DestinationDevice"`
	DestinationControl       int            `xml:"DestinationControl"`
	DestinationAddress       int            `xml:"DestinationAddress"`
	ConnectionType           ConnectionType `xml:"ConnectionType"`
	SourceDeviceRestrictions *IDList        `xml:"SourceDeviceRestrictions,omitempty"`
	RoomRestrictions         *IDList        `xml:"RoomRestrictions,omitempty"`
}

// IDList is a restriction list written as repeated <Id> elements.
// A nil list is omitted from the output.
type IDList struct {
	IDs []int `xml:"Id"`
}

// NewIDList returns nil for an empty list.
func NewIDList(ids []int) *IDList {
	if len(ids) == 0 {
		return nil
	}
	return &IDList{IDs: ids}
}

// Values returns the ids, or nil for a nil list.
func (l *IDList) Values() []int {
	if l == nil {
		return nil
	}
	return l.IDs
}

// SettingsFor captures the persisted form of conn.
func SettingsFor(conn *Connection) ConnectionSettings {
	src, dst := conn.Source(), conn.Destination()
	return ConnectionSettings{
		ID:                       conn.ID(),
		SourceDevice:             src.Device,
		SourceControl:            src.Control,
		SourceAddress:            src.Address,
		DestinationDevice:        dst.Device,
		DestinationControl:       dst.Control,
		DestinationAddress:       dst.Address,
		ConnectionType:           conn.Type(),
		SourceDeviceRestrictions: NewIDList(conn.SourceDeviceRestrictions()),
		RoomRestrictions:         NewIDList(conn.RoomRestrictions()),
	}
}

// ToConnection builds the runtime connection.
func (s ConnectionSettings) ToConnection() (*Connection, error) {
	return NewConnection(
		s.ID,
		Endpoint{Device: s.SourceDevice, Control: s.SourceControl, Address: s.SourceAddress},
		Endpoint{Device: s.DestinationDevice, Control: s.DestinationControl, Address: s.DestinationAddress},
		s.ConnectionType,
		s.SourceDeviceRestrictions.Values(),
		s.RoomRestrictions.Values(),
	)
}

// ToConnections builds every runtime connection, stopping at the first error.
func (s Settings) ToConnections() ([]*Connection, error) {
	out := make([]*Connection, 0, len(s.Connections))
	for _, cs := range s.Connections {
		conn, err := cs.ToConnection()
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", cs.ID, err)
		}
		out = append(out, conn)
	}
	return out, nil
}

// NewSettings captures the persisted form of conns.
func NewSettings(conns []*Connection) Settings {
	s := Settings{Connections: make([]ConnectionSettings, 0, len(conns))}
	for _, conn := range conns {
		s.Connections = append(s.Connections, SettingsFor(conn))
	}
	return s
}

// ReadSettings decodes connection settings from r.
func ReadSettings(r io.Reader) (Settings, error) {
	var s Settings
	if err := xml.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding connection settings: %w", err)
	}
	return s, nil
}

// WriteSettings encodes s to w as indented XML with a header.
func WriteSettings(w io.Writer, s Settings) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding connection settings: %w", err)
	}
	return enc.Close()
}

// LoadSettingsFile reads and converts a settings file in one step.
func LoadSettingsFile(path string) ([]*Connection, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("opening connection settings: %w", err)
	}
	defer f.Close()

	s, err := ReadSettings(f)
	if err != nil {
		return nil, err
	}
	return s.ToConnections()
}
