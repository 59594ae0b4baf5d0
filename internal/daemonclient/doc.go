// Package daemonclient provides the HTTP client the CLI uses to drive a
// running kinetic daemon, plus helpers for launching and signalling the
// daemon process.
package daemonclient
