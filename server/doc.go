// Package server exposes the planner over HTTP.
//
// Three POST endpoints cover the contract: /partition runs the pipeline
// synchronously and returns the partition plus the street network as
// GeoJSON; /partition/stream runs the same pipeline behind a
// text/event-stream of progress records terminated by a complete or error
// record; /route answers constraint-aware routing against the most recent
// cached partition. GET /health and GET / are operational conveniences.
//
// The street network itself comes from a NetworkSource — the OSM fetch is
// an external collaborator whose only contract is the data shape it
// returns. FileSource implements the contract from a GeoJSON street dump
// on disk. Every fetch is wrapped in the configured upstream timeout.
//
// Transport is fasthttp; request and response bodies are encoded with
// goccy/go-json. Error kinds from the plan package map onto HTTP statuses:
// invalid bbox → 400, upstream → 502, timeout → 504, anything else → 500.
package server
