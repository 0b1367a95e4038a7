// Package server runs the voxboard HTTP API: a gin engine behind an h2c
// handler, managed as a component so bootstrap can start and drain it.
//
// ApplyMiddleware installs the request pipeline (server/middleware) and
// RegisterDefaultEndpoints mounts the probe routes (server/endpoint):
//
//   - /health aggregates component health, 503 when anything is unhealthy
//   - /alive answers as long as the process serves HTTP
//   - /info reports build metadata and uptime
package server
