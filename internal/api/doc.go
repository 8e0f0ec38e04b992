// Package api provides the HTTP REST API of the AV routing service.
//
// Control software uses it to inspect the connection graph, query paths,
// read switcher state, and execute or clear routes. Endpoints live under
// /api/v1:
//
//	GET    /health
//	GET    /connections             POST /connections
//	GET    /connections/export      (XML connection list)
//	GET    /connections/{id}        DELETE /connections/{id}
//	POST   /paths                   (path queries, nothing is switched)
//	GET    /controls
//	GET    /switchers/{device}/{control}/routes?type=Video
//	DELETE /switchers/{device}/{control}/outputs/{output}?type=Video
//	POST   /routes                  (find and switch a route)
//
// The server follows the lifecycle of the other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
