package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kinetic/internal/config"
	"kinetic/internal/services"
)

// WorldIDVerifier validates proofs against the World ID cloud verifier.
type WorldIDVerifier struct {
	appID      string
	action     string
	baseURL    string
	httpClient *http.Client
}

var _ Verifier = (*WorldIDVerifier)(nil)

// Option configures a WorldIDVerifier.
type Option func(*WorldIDVerifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(v *WorldIDVerifier) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// NewWorldID builds a verifier from the identity section of the config.
func NewWorldID(cfg *config.Config, opts ...Option) *WorldIDVerifier {
	verifier := &WorldIDVerifier{
		appID:      strings.TrimSpace(cfg.Identity.AppID),
		action:     strings.TrimSpace(cfg.Identity.Action),
		baseURL:    strings.TrimRight(cfg.Identity.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(verifier)
	}
	return verifier
}

// Configured reports whether the verifier holds an app identifier.
func (v *WorldIDVerifier) Configured() bool {
	return v.appID != ""
}

type cloudVerifyRequest struct {
	Proof             string `json:"proof"`
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action"`
	Signal            string `json:"signal"`
}

type cloudVerifyResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

// Verify submits the proof to the cloud verifier. Rejected proofs and
// unreachable or misbehaving verifiers all surface as validation errors
// carrying a caller-facing detail; only a missing app id is a server fault.
func (v *WorldIDVerifier) Verify(ctx context.Context, proof Proof) (*Result, error) {
	if !v.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "identity", "verify", "identity app id not configured", nil)
	}
	if proof.Proof == "" || proof.MerkleRoot == "" || proof.NullifierHash == "" {
		return &Result{Verified: false, Detail: "Missing required verification fields"},
			services.Wrap(services.ErrValidation, "identity", "verify", "missing required verification fields", nil)
	}

	payload := cloudVerifyRequest{
		Proof:             proof.Proof,
		MerkleRoot:        proof.MerkleRoot,
		NullifierHash:     proof.NullifierHash,
		VerificationLevel: proof.VerificationLevel,
		Action:            v.action,
		Signal:            "",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode verify payload: %w", err)
	}

	endpoint := v.baseURL + "/api/v2/verify/" + v.appID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return &Result{Verified: false, Detail: "Verification failed: verifier unreachable"},
			services.Wrap(services.ErrValidation, "identity", "verify", "verifier unreachable", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var decoded cloudVerifyResponse
	_ = json.Unmarshal(body, &decoded)

	switch {
	case resp.StatusCode == http.StatusOK && decoded.Success:
		return &Result{Verified: true, NullifierHash: proof.NullifierHash}, nil
	case resp.StatusCode == http.StatusBadRequest:
		detail := decoded.Detail
		if detail == "" {
			detail = "proof rejected"
		}
		return &Result{Verified: false, Detail: detail},
			services.Wrap(services.ErrValidation, "identity", "verify", detail, nil)
	default:
		// The upstream answering anything but a clean success is a proof
		// rejection as far as callers are concerned, never a server fault.
		detail := "Verification failed"
		if decoded.Detail != "" {
			detail += ": " + decoded.Detail
		}
		return &Result{Verified: false, Detail: detail},
			services.Wrap(services.ErrValidation, "identity", "verify",
				fmt.Sprintf("verifier returned %d", resp.StatusCode), nil)
	}
}
