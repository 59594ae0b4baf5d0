// Package identity verifies proof-of-personhood claims for uploaders.
package identity

import "context"

// Proof carries the zero-knowledge proof material produced by a wallet.
type Proof struct {
	Proof             string `json:"proof"`
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	VerificationLevel string `json:"verification_level"`
}

// Result reports the outcome of a verification attempt.
type Result struct {
	Verified      bool
	NullifierHash string
	Detail        string
}

// Verifier checks a personhood proof against an identity provider.
type Verifier interface {
	Verify(ctx context.Context, proof Proof) (*Result, error)
}
