// Package daemon coordinates the long-running Kinetic process.
//
// It wires configuration, catalog storage, the workflow session manager, and
// the external service clients into a single lifecycle with flock-based
// locking to prevent multiple instances, and serves the HTTP API the CLI and
// web frontend talk to.
//
// Keep orchestration logic here: individual workflow steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
