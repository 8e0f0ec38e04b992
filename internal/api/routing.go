package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/pathfinding"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

type pathsRequest struct {
	Queries []pathfinding.Query `json:"queries"`
}

// controlView is the JSON form of a registered control.
type controlView struct {
	Device  int             `json:"device"`
	Control int             `json:"control"`
	Name    string          `json:"name"`
	Kind    string          `json:"kind"`
	Inputs  []controls.Port `json:"inputs,omitempty"`
	Outputs []controls.Port `json:"outputs,omitempty"`
}

// handleFindPaths answers path queries without switching anything.
// Unreachable destinations appear as results with a null path.
func (s *Server) handleFindPaths(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Queries) == 0 {
		writeBadRequest(w, "at least one query is required")
		return
	}

	results, err := s.graph.Finder().FindPaths(req.Queries...)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

// handleRoute finds a path for the operation and switches every midpoint on it.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var op controls.RouteOperation
	if !decodeBody(w, r, &op) {
		return
	}

	paths, err := s.graph.Route(r.Context(), op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

func (s *Server) handleListControls(w http.ResponseWriter, _ *http.Request) {
	all := s.graph.Registry().All()
	views := make([]controlView, 0, len(all))
	for _, c := range all {
		v := controlView{Device: c.DeviceID(), Control: c.ControlID(), Name: c.Name()}
		switch c := c.(type) {
		case controls.SwitcherControl:
			v.Kind, v.Inputs, v.Outputs = "switcher", c.Inputs(), c.Outputs()
		case controls.DestinationControl:
			v.Kind, v.Inputs = "destination", c.Inputs()
		case controls.SourceControl:
			v.Kind, v.Outputs = "source", c.Outputs()
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"controls": views, "count": len(views)})
}

// handleSwitcherRoutes lists a switcher's current routes for ?type
// (default: every type).
func (s *Server) handleSwitcherRoutes(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.switcherParam(w, r)
	if !ok {
		return
	}
	t, ok := typeQuery(w, r)
	if !ok {
		return
	}
	routes := switcherRoutes(sw, t)
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes, "count": len(routes)})
}

// handleClearOutput disconnects an output for ?type (default: every type).
func (s *Server) handleClearOutput(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.switcherParam(w, r)
	if !ok {
		return
	}
	output, ok := intParam(w, r, "output")
	if !ok {
		return
	}
	t, ok := typeQuery(w, r)
	if !ok {
		return
	}

	if err := sw.ClearOutput(r.Context(), output, t); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) switcherParam(w http.ResponseWriter, r *http.Request) (controls.SwitcherControl, bool) {
	device, ok := intParam(w, r, "device")
	if !ok {
		return nil, false
	}
	control, ok := intParam(w, r, "control")
	if !ok {
		return nil, false
	}
	sw, err := s.graph.Registry().Switcher(connections.ControlKey{Device: device, Control: control})
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sw, true
}

func typeQuery(w http.ResponseWriter, r *http.Request) (connections.ConnectionType, bool) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return connections.AllTypes, true
	}
	t, err := connections.ParseConnectionType(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return connections.None, false
	}
	return t, true
}

// switcherRoutes reads routes from the switcher's cache when it exposes
// one, otherwise by asking for each declared output.
func switcherRoutes(sw controls.SwitcherControl, t connections.ConnectionType) []switcher.Route {
	if cached, ok := sw.(interface{ Cache() *switcher.Cache }); ok {
		return cached.Cache().Routes(t)
	}

	routes := []switcher.Route{}
	for _, port := range sw.Outputs() {
		for _, flag := range t.Flags() {
			in, err := sw.GetInput(port.Address, flag)
			if err != nil {
				continue
			}
			if addr, ok := in.Get(); ok {
				routes = append(routes, switcher.Route{Output: port.Address, Input: addr, Type: flag})
			}
		}
	}
	return routes
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
