package api

import (
	"time"

	"kinetic/internal/catalog"
	"kinetic/internal/session"
)

// GatewayResolver renders public URLs for content identifiers.
type GatewayResolver interface {
	GatewayURL(cid string) string
}

// FromVideo converts a stored record into its wire form. A nil resolver
// leaves the URL fields empty.
func FromVideo(video *catalog.Video, gateway GatewayResolver) VideoView {
	view := VideoView{
		ID:               video.ID,
		Title:            video.Title,
		Description:      video.Description,
		SkillCategory:    video.SkillCategory,
		VideoCID:         video.VideoCID,
		ThumbnailCID:     video.ThumbnailCID,
		OwnerAddress:     video.OwnerAddress,
		IsVerifiedHuman:  video.IsVerifiedHuman,
		TokenID:          video.TokenID,
		MintTxHash:       video.MintTxHash,
		IPAssetID:        video.IPAssetID,
		IPTxHash:         video.IPTxHash,
		LicenseType:      video.LicenseType,
		LicenseTermsJSON: video.LicenseTermsJSON,
		CreatedAt:        video.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        video.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if gateway != nil {
		view.VideoURL = gateway.GatewayURL(video.VideoCID)
		if video.ThumbnailCID != "" {
			view.ThumbnailURL = gateway.GatewayURL(video.ThumbnailCID)
		}
	}
	return view
}

// FromSession converts a session snapshot into its wire form.
func FromSession(sess session.Session) SessionView {
	view := SessionView{
		ID:              sess.ID,
		OwnerAddress:    sess.OwnerAddress,
		Step:            sess.Step.String(),
		FileName:        sess.FileName,
		ContentID:       sess.ContentID,
		ThumbnailCID:    sess.ThumbnailCID,
		IsHumanVerified: sess.IsHumanVerified,
		Title:           sess.Title,
		Description:     sess.Description,
		SkillCategory:   sess.SkillCategory,
		MetadataCID:     sess.MetadataCID,
		RecordID:        sess.RecordID,
		LicenseTerms:    sess.LicenseTerms,
		LastError:       sess.LastError,
		CreatedAt:       sess.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       sess.UpdatedAt.Format(time.RFC3339),
	}
	if sess.MintedToken != nil {
		tokenID := sess.MintedToken.TokenID
		view.TokenID = &tokenID
		view.MintTxHash = sess.MintedToken.TxHash
	}
	if sess.RegisteredAsset != nil {
		view.IPAssetID = sess.RegisteredAsset.AssetID
		view.IPTxHash = sess.RegisteredAsset.TxHash
	}
	return view
}
