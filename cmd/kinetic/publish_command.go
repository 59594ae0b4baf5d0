package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kinetic/internal/api"
	"kinetic/internal/services/ipreg"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var (
		wallet        string
		title         string
		description   string
		category      string
		thumbnailCID  string
		proof         string
		merkleRoot    string
		nullifier     string
		level         string
		licenseType   string
		royalty       int
		flatFee       int
		commercialUse bool
		socialUse     bool
	)

	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Run the full publish workflow for a video file",
		Long: `Publish uploads a video, verifies personhood, mints the video NFT,
registers it as an IP asset, and attaches license terms in one pass.
Each step reports progress; if a step fails the session is kept so the
command can be re-run against the same session id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client := ctx.client()

			upload, err := client.Upload(cmd.Context(), args[0], wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Pinned video %s\n", upload.IPFSHash)

			sess, err := client.CreateSession(cmd.Context(), wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Opened session %s\n", sess.ID)

			if _, err := client.AttachUpload(cmd.Context(), sess.ID, api.AttachUploadRequest{
				ContentID:    upload.IPFSHash,
				FileName:     args[0],
				ThumbnailCID: thumbnailCID,
			}); err != nil {
				return sessionErr(sess.ID, err)
			}

			if _, err := client.VerifySession(cmd.Context(), sess.ID, api.VerifyRequest{
				WalletAddress:     wallet,
				Proof:             proof,
				MerkleRoot:        merkleRoot,
				NullifierHash:     nullifier,
				VerificationLevel: level,
			}); err != nil {
				return sessionErr(sess.ID, err)
			}
			fmt.Fprintln(stdout, "Personhood verified")

			if _, err := client.Advance(cmd.Context(), sess.ID); err != nil {
				return sessionErr(sess.ID, err)
			}
			if _, err := client.SetDetails(cmd.Context(), sess.ID, api.SetDetailsRequest{
				Title:         title,
				Description:   description,
				SkillCategory: category,
			}); err != nil {
				return sessionErr(sess.ID, err)
			}

			minted, err := client.Mint(cmd.Context(), sess.ID)
			if err != nil {
				return sessionErr(sess.ID, err)
			}
			if minted.TokenID != nil {
				fmt.Fprintf(stdout, "Minted token %d (tx %s)\n", *minted.TokenID, minted.MintTxHash)
			}

			registered, err := client.RegisterIP(cmd.Context(), sess.ID)
			if err != nil {
				return sessionErr(sess.ID, err)
			}
			fmt.Fprintf(stdout, "Registered IP asset %s (tx %s)\n", registered.IPAssetID, registered.IPTxHash)

			done, err := client.AttachLicense(cmd.Context(), sess.ID, ipreg.Terms{
				Type:              licenseType,
				RoyaltyPercentage: royalty,
				FlatFee:           flatFee,
				CommercialUse:     commercialUse,
				SocialMediaUse:    socialUse,
			})
			if err != nil {
				return sessionErr(sess.ID, err)
			}
			fmt.Fprintf(stdout, "License attached, video published as record %s\n", done.RecordID)
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "Owner wallet address")
	cmd.Flags().StringVar(&title, "title", "", "Video title")
	cmd.Flags().StringVar(&description, "description", "", "Video description")
	cmd.Flags().StringVar(&category, "category", "", "Skill category")
	cmd.Flags().StringVar(&thumbnailCID, "thumbnail-cid", "", "Already pinned thumbnail CID")
	cmd.Flags().StringVar(&proof, "proof", "", "World ID proof payload")
	cmd.Flags().StringVar(&merkleRoot, "merkle-root", "", "World ID merkle root")
	cmd.Flags().StringVar(&nullifier, "nullifier", "", "World ID nullifier hash")
	cmd.Flags().StringVar(&level, "level", "orb", "World ID verification level")
	cmd.Flags().StringVar(&licenseType, "license-type", ipreg.TypeStandard, "License type (standard or ai-training)")
	cmd.Flags().IntVar(&royalty, "royalty", 0, "Royalty percentage for commercial use")
	cmd.Flags().IntVar(&flatFee, "flat-fee", 0, "Flat license fee")
	cmd.Flags().BoolVar(&commercialUse, "commercial", false, "Allow commercial use")
	cmd.Flags().BoolVar(&socialUse, "social", true, "Allow social media use")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("proof")
	_ = cmd.MarkFlagRequired("merkle-root")
	_ = cmd.MarkFlagRequired("nullifier")
	return cmd
}

func sessionErr(id string, err error) error {
	return fmt.Errorf("session %s: %w", id, err)
}
