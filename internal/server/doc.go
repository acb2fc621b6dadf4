// Package server exposes the extraction pipeline over HTTP.
//
// Every response uses a single JSON envelope carrying a status marker,
// an HTTP-aligned code, a server-assigned request ID, and either a data
// object or an error message. Clients can unmarshal every endpoint the
// same way and correlate log lines by request ID.
//
// # Endpoints
//
//	GET  /health           liveness plus recent-performance verdict
//	POST /extract          run field extraction on a base64-encoded frame
//	GET  /config/mappings  current field mapping table
//	PUT  /config/mappings  replace the field mapping table
//	GET  /stats            recognition, cache, and breaker statistics
//	POST /cache/clear      drop all cached extraction results
package server
