// Package api defines the wire types and service layer shared by the
// daemon's HTTP surface and the CLI client.
package api
