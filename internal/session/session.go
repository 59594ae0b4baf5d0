// Package session drives the video publish workflow as an explicit state
// machine. Each session walks upload, details, mint, license, and complete
// in order; forward transitions run the external side effects for that step
// and a failed step leaves the session where it was with the error recorded.
package session

import (
	"time"

	"kinetic/internal/services/ipreg"
)

// MintedToken is the on-chain result of a successful mint. It is retained
// on the session so a retry after a later failure does not mint twice.
type MintedToken struct {
	TokenID int64  `json:"tokenId"`
	TxHash  string `json:"txHash"`
}

// RegisteredAsset is the result of IP asset registration.
type RegisteredAsset struct {
	AssetID string `json:"assetId"`
	TxHash  string `json:"txHash"`
}

// Session is the transient state of one publish workflow.
type Session struct {
	ID           string
	OwnerAddress string
	Step         Step

	FileName        string
	ContentID       string
	ThumbnailCID    string
	IsHumanVerified bool
	NullifierHash   string

	Title         string
	Description   string
	SkillCategory string

	MetadataCID     string
	MintedToken     *MintedToken
	RegisteredAsset *RegisteredAsset
	RecordID        string
	LicenseTerms    *ipreg.Terms

	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// fail records the step error without moving the session.
func (s *Session) fail(err error) error {
	s.LastError = err.Error()
	s.touch()
	return err
}

func (s *Session) clearError() {
	s.LastError = ""
}
