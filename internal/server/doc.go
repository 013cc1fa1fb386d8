// Package server exposes glossary generation over HTTP with gin.
//
// The router applies CORS, request ids, request logging and panic recovery
// to every route. Errors use the envelope
// {"success": false, "error": "...", "details": "..."}.
package server
