package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

// connectionRequest is the body of POST /connections.
type connectionRequest struct {
	ID                       int                        `json:"id"`
	Source                   connections.Endpoint       `json:"source"`
	Destination              connections.Endpoint       `json:"destination"`
	Type                     connections.ConnectionType `json:"type"`
	SourceDeviceRestrictions []int                      `json:"source_device_restrictions"`
	RoomRestrictions         []int                      `json:"room_restrictions"`
}

func (s *Server) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	all := s.graph.Connections().All()
	writeJSON(w, http.StatusOK, map[string]any{"connections": all, "count": len(all)})
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	conn, found := s.graph.Connections().Get(id)
	if !found {
		writeNotFound(w, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// handleCreateConnection adds a connection to the live graph and persists it.
func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	conn, err := connections.NewConnection(req.ID, req.Source, req.Destination, req.Type,
		req.SourceDeviceRestrictions, req.RoomRestrictions)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.graph.Connections().Add(conn); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.repo != nil {
		if err := s.repo.Save(r.Context(), conn); err != nil {
			s.graph.Connections().Remove(conn.ID())
			s.logger.Error("saving connection failed", "id", conn.ID(), "error", err)
			writeInternalError(w, "failed to save connection")
			return
		}
	}

	s.logger.Info("connection created", "id", conn.ID(), "connection", conn.String())
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if !s.graph.Connections().Remove(id) {
		writeNotFound(w, "connection not found")
		return
	}
	if s.repo != nil {
		if err := s.repo.Delete(r.Context(), id); err != nil && !errors.Is(err, connections.ErrConnectionNotFound) {
			s.logger.Error("deleting connection failed", "id", id, "error", err)
			writeInternalError(w, "failed to delete connection")
			return
		}
	}

	s.logger.Info("connection deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleExportConnections writes the live connection list in the XML
// settings format accepted by routing.connections_file.
func (s *Server) handleExportConnections(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="connections.xml"`)
	settings := connections.NewSettings(s.graph.Connections().All())
	if err := connections.WriteSettings(w, settings); err != nil {
		s.logger.Error("exporting connections failed", "error", err)
	}
}

// intParam parses a URL parameter, writing a 400 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return v, true
}
