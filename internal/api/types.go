package api

import "kinetic/internal/services/ipreg"

// VideoView is the wire representation of a published video.
type VideoView struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	SkillCategory    string `json:"skillCategory"`
	VideoCID         string `json:"videoCid"`
	VideoURL         string `json:"videoUrl,omitempty"`
	ThumbnailCID     string `json:"thumbnailCid,omitempty"`
	ThumbnailURL     string `json:"thumbnailUrl,omitempty"`
	OwnerAddress     string `json:"ownerAddress"`
	IsVerifiedHuman  bool   `json:"isVerifiedHuman"`
	TokenID          *int64 `json:"tokenId,omitempty"`
	MintTxHash       string `json:"mintTxHash,omitempty"`
	IPAssetID        string `json:"ipAssetId,omitempty"`
	IPTxHash         string `json:"ipTxHash,omitempty"`
	LicenseType      string `json:"licenseType,omitempty"`
	LicenseTermsJSON string `json:"licenseTerms,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// VideoListResponse wraps a video listing.
type VideoListResponse struct {
	Videos []VideoView `json:"videos"`
}

// VideoResponse wraps a single video. Success is set on mutations so
// the body reads {success, video}; plain reads omit it.
type VideoResponse struct {
	Success bool      `json:"success,omitempty"`
	Video   VideoView `json:"video"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// CreateVideoRequest publishes a video record directly.
type CreateVideoRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SkillCategory   string `json:"skillCategory"`
	VideoIPFSHash   string `json:"videoIpfsHash"`
	ThumbnailCID    string `json:"thumbnailCid"`
	OwnerAddress    string `json:"ownerAddress"`
	IsVerifiedHuman bool   `json:"isVerifiedHuman"`
}

// VideoUpdates carries the owner-editable fields of a record. Absent
// fields stay unchanged.
type VideoUpdates struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	SkillCategory *string `json:"skillCategory,omitempty"`
	LicenseType   *string `json:"licenseType,omitempty"`
}

// UpdateVideoRequest mutates a record on behalf of its owner.
type UpdateVideoRequest struct {
	OwnerAddress string       `json:"ownerAddress"`
	Updates      VideoUpdates `json:"updates"`
}

// DeleteVideoRequest authorizes a delete when sent as a body instead of
// the ownerAddress query parameter.
type DeleteVideoRequest struct {
	OwnerAddress string `json:"ownerAddress"`
}

// UploadResponse reports a pinned file.
type UploadResponse struct {
	Success    bool   `json:"success"`
	IPFSHash   string `json:"ipfsHash"`
	PinSize    int64  `json:"pinSize"`
	Timestamp  string `json:"timestamp"`
	GatewayURL string `json:"gatewayUrl,omitempty"`
}

// MetadataUploadResponse reports pinned JSON metadata.
type MetadataUploadResponse struct {
	Success  bool   `json:"success"`
	IPFSHash string `json:"ipfsHash"`
}

// VerifyRequest carries a personhood proof for a wallet.
type VerifyRequest struct {
	WalletAddress     string `json:"walletAddress"`
	Proof             string `json:"proof"`
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	VerificationLevel string `json:"verification_level"`
}

// VerifyResponse reports a verification outcome. The proof fields keep
// the identity provider's snake_case names.
type VerifyResponse struct {
	Success           bool   `json:"success"`
	Verified          bool   `json:"verified"`
	NullifierHash     string `json:"nullifier_hash,omitempty"`
	VerificationLevel string `json:"verification_level,omitempty"`
	Detail            string `json:"detail,omitempty"`
}

// SessionView is the wire representation of a workflow session.
type SessionView struct {
	ID              string       `json:"id"`
	OwnerAddress    string       `json:"ownerAddress"`
	Step            string       `json:"step"`
	FileName        string       `json:"fileName,omitempty"`
	ContentID       string       `json:"contentId,omitempty"`
	ThumbnailCID    string       `json:"thumbnailCid,omitempty"`
	IsHumanVerified bool         `json:"isHumanVerified"`
	Title           string       `json:"title,omitempty"`
	Description     string       `json:"description,omitempty"`
	SkillCategory   string       `json:"skillCategory,omitempty"`
	MetadataCID     string       `json:"metadataCid,omitempty"`
	TokenID         *int64       `json:"tokenId,omitempty"`
	MintTxHash      string       `json:"mintTxHash,omitempty"`
	IPAssetID       string       `json:"ipAssetId,omitempty"`
	IPTxHash        string       `json:"ipTxHash,omitempty"`
	RecordID        string       `json:"recordId,omitempty"`
	LicenseTerms    *ipreg.Terms `json:"licenseTerms,omitempty"`
	LastError       string       `json:"lastError,omitempty"`
	CreatedAt       string       `json:"createdAt"`
	UpdatedAt       string       `json:"updatedAt"`
}

// SessionResponse wraps a session snapshot.
type SessionResponse struct {
	Session SessionView `json:"session"`
}

// CreateSessionRequest opens a workflow session.
type CreateSessionRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// AttachUploadRequest records a pinned video on a session.
type AttachUploadRequest struct {
	ContentID    string `json:"contentId"`
	FileName     string `json:"fileName"`
	ThumbnailCID string `json:"thumbnailCid"`
}

// SetDetailsRequest captures the details step fields.
type SetDetailsRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	SkillCategory string `json:"skillCategory"`
}

// AttachLicenseRequest picks the license configuration.
type AttachLicenseRequest struct {
	Terms ipreg.Terms `json:"terms"`
}

// StatusResponse reports daemon runtime state.
type StatusResponse struct {
	Running            bool           `json:"running"`
	PID                int            `json:"pid"`
	CatalogDBPath      string         `json:"catalogDbPath"`
	LockFilePath       string         `json:"lockFilePath"`
	LiveSessions       int            `json:"liveSessions"`
	VideosByCategory   map[string]int `json:"videosByCategory"`
	PinningConfigured  bool           `json:"pinningConfigured"`
	IdentityConfigured bool           `json:"identityConfigured"`
	ChainConfigured    bool           `json:"chainConfigured"`
}

// CategoriesResponse lists the closed skill-category set.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
