// Package inspector serves a live view hierarchy over HTTP.
//
// A Host owns a hierarchy rendered into the headless platform and serializes
// every pass on its own goroutine. The Server exposes the host:
//
//	GET  /healthz          liveness probe
//	GET  /tree             description of the current tree (?format=text for a view dump)
//	GET  /views?reuse=ID   views carrying a reuse identifier
//	GET  /views/{key}      view for a coordinator key
//	POST /reconcile        rebuild from a YAML tree description
//	POST /layout           re-layout with ?width=&height=
//	GET  /events           websocket stream of finished passes
//	GET  /metrics          Prometheus metrics
//	GET  /snapshots        stored snapshot names, when a store is configured
//	POST /snapshots/{name} snapshot the current tree
//	GET  /snapshots/{name} fetch a stored snapshot (?diff=1 compares it with the live tree)
package inspector
