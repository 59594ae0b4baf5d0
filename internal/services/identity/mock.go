package identity

import (
	"context"

	"kinetic/internal/services"
)

// MockVerifier accepts every structurally complete proof without contacting
// a provider. It exists for development setups and is only reachable when
// identity.allow_mock is set.
type MockVerifier struct{}

var _ Verifier = (*MockVerifier)(nil)

// Verify accepts the proof as long as a nullifier hash is present.
func (MockVerifier) Verify(_ context.Context, proof Proof) (*Result, error) {
	if proof.NullifierHash == "" {
		return nil, services.Wrap(services.ErrValidation, "identity", "verify", "incomplete proof payload", nil)
	}
	return &Result{Verified: true, NullifierHash: proof.NullifierHash, Detail: "mock verification"}, nil
}
