// Package logging wraps Zap with context-aware, structured logging for
// pland. Log entries automatically carry trace, project, request, and actor
// correlation fields pulled from the context. Output goes to stdout and,
// optionally, to an OpenTelemetry log provider via the otelzap bridge.
package logging
