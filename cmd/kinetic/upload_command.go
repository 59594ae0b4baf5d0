package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var wallet string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Pin a video file without starting a publish session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Upload(cmd.Context(), args[0], wallet)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Pinned %s\n", resp.IPFSHash)
			fmt.Fprintf(stdout, "Size:    %d bytes\n", resp.PinSize)
			if resp.GatewayURL != "" {
				fmt.Fprintf(stdout, "Gateway: %s\n", resp.GatewayURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet address to tag the pin with")
	return cmd
}
