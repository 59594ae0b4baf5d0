package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kinetic/internal/api"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var req api.VerifyRequest

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Submit a World ID personhood proof for a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Verify(cmd.Context(), req)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if resp.Verified {
				fmt.Fprintf(stdout, "Verified (nullifier %s)\n", resp.NullifierHash)
				return nil
			}
			if resp.Detail != "" {
				fmt.Fprintf(stdout, "Rejected: %s\n", resp.Detail)
			} else {
				fmt.Fprintln(stdout, "Rejected")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.WalletAddress, "wallet", "", "Wallet address to mark verified")
	cmd.Flags().StringVar(&req.Proof, "proof", "", "Zero-knowledge proof payload")
	cmd.Flags().StringVar(&req.MerkleRoot, "merkle-root", "", "Merkle root of the identity set")
	cmd.Flags().StringVar(&req.NullifierHash, "nullifier", "", "Nullifier hash of the proof")
	cmd.Flags().StringVar(&req.VerificationLevel, "level", "orb", "Verification level (orb or device)")
	_ = cmd.MarkFlagRequired("proof")
	_ = cmd.MarkFlagRequired("merkle-root")
	_ = cmd.MarkFlagRequired("nullifier")
	return cmd
}
