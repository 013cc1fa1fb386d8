// Package redact hides credentials before they reach logs or API responses.
//
// MaskSecret and MaskURL produce the display forms used by the /config and
// /docs endpoints: API keys keep their first and last four characters, and
// connection URLs keep the user name but drop the password. Secrets scrubs
// free text such as prompt previews, provider error bodies and logged request
// payloads with regex heuristics for common key and token shapes.
package redact
