// Package services holds the shared error taxonomy for Kinetic's external
// service clients and the helpers that map those errors onto HTTP responses.
//
// Subpackages wrap the hosted services the marketplace delegates to: pinning
// (IPFS pin/gateway), identity (World ID proof verification), chain (JSON-RPC
// node access and wallet), mint (KineticVideoNFT), and ipreg (Story Protocol
// registration and licensing).
package services
