package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kinetic/internal/api"
	"kinetic/internal/daemonclient"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	videosCmd := &cobra.Command{
		Use:   "videos",
		Short: "Browse and manage published videos",
	}

	videosCmd.AddCommand(newVideosListCommand(ctx))
	videosCmd.AddCommand(newVideosShowCommand(ctx))
	videosCmd.AddCommand(newVideosUpdateCommand(ctx))
	videosCmd.AddCommand(newVideosDeleteCommand(ctx))

	return videosCmd
}

func newVideosListCommand(ctx *commandContext) *cobra.Command {
	var category, search, owner string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, err := ctx.client().Videos(cmd.Context(), daemonclient.VideoFilter{
				Category: category,
				Search:   search,
				Owner:    owner,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, videos)
			}

			stdout := cmd.OutOrStdout()
			if len(videos) == 0 {
				fmt.Fprintln(stdout, "No videos found")
				return nil
			}
			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				token := ""
				if video.TokenID != nil {
					token = strconv.FormatInt(*video.TokenID, 10)
				}
				rows = append(rows, []string{
					video.ID,
					video.Title,
					video.SkillCategory,
					video.OwnerAddress,
					yesNo(video.IsVerifiedHuman),
					token,
					video.LicenseType,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "Title", "Category", "Owner", "Verified", "Token", "License"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by skill category")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title/description search")
	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner wallet address")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newVideosShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single published video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := ctx.client().Video(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, video)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "ID:           %s\n", video.ID)
			fmt.Fprintf(stdout, "Title:        %s\n", video.Title)
			if video.Description != "" {
				fmt.Fprintf(stdout, "Description:  %s\n", video.Description)
			}
			fmt.Fprintf(stdout, "Category:     %s\n", video.SkillCategory)
			fmt.Fprintf(stdout, "Owner:        %s\n", video.OwnerAddress)
			fmt.Fprintf(stdout, "Verified:     %s\n", yesNo(video.IsVerifiedHuman))
			fmt.Fprintf(stdout, "Video CID:    %s\n", video.VideoCID)
			if video.VideoURL != "" {
				fmt.Fprintf(stdout, "Video URL:    %s\n", video.VideoURL)
			}
			if video.TokenID != nil {
				fmt.Fprintf(stdout, "Token:        %d (tx %s)\n", *video.TokenID, video.MintTxHash)
			}
			if video.IPAssetID != "" {
				fmt.Fprintf(stdout, "IP asset:     %s (tx %s)\n", video.IPAssetID, video.IPTxHash)
			}
			if video.LicenseType != "" {
				fmt.Fprintf(stdout, "License:      %s\n", video.LicenseType)
			}
			fmt.Fprintf(stdout, "Created:      %s\n", video.CreatedAt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newVideosUpdateCommand(ctx *commandContext) *cobra.Command {
	var owner string
	req := api.UpdateVideoRequest{}
	var title, description, category, licenseType string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a published video you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.OwnerAddress = owner
			if cmd.Flags().Changed("title") {
				req.Updates.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Updates.Description = &description
			}
			if cmd.Flags().Changed("category") {
				req.Updates.SkillCategory = &category
			}
			if cmd.Flags().Changed("license-type") {
				req.Updates.LicenseType = &licenseType
			}

			video, err := ctx.client().UpdateVideo(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", video.Title, video.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Wallet address of the video owner")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&category, "category", "", "New skill category")
	cmd.Flags().StringVar(&licenseType, "license-type", "", "New license type")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newVideosDeleteCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a published video you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().DeleteVideo(cmd.Context(), args[0], owner); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Wallet address of the video owner")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the available skill categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := ctx.client().Categories(cmd.Context())
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			for _, category := range categories {
				fmt.Fprintln(stdout, category)
			}
			return nil
		},
	}
}
