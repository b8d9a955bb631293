// Package services wires pland's service instances into a single registry
// so transports (HTTP today) depend on one constructor argument instead of
// a growing parameter list.
package services
