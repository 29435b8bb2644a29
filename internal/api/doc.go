// Package api is the HTTP adapter of the curriculum services. Handlers
// decode and validate requests, call the unit and alignment services and
// translate their domain errors into status codes with sanitized messages.
// Mapping edits carry the expected mapping version in If-Match and report
// the new version as the ETag.
package api
