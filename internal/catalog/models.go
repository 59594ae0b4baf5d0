package catalog

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryAll is the sentinel filter value that matches every category.
const CategoryAll = "All Categories"

// SkillCategories is the closed list of categories a video may carry.
var SkillCategories = []string{
	"Fine Motor Skills",
	"Heavy Lifting",
	"Precision Assembly",
	"Food Preparation",
	"Construction",
	"Craftsmanship",
	"Agricultural Tasks",
	"Medical Procedures",
	"Other",
}

var skillCategorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(SkillCategories))
	for _, category := range SkillCategories {
		set[category] = struct{}{}
	}
	return set
}()

var categoryCaser = cases.Title(language.English)

// IsSkillCategory reports whether value is one of the known categories.
func IsSkillCategory(value string) bool {
	_, ok := skillCategorySet[value]
	return ok
}

// NormalizeCategory title-cases a raw category string and returns the known
// category it matches, or false when it matches none.
func NormalizeCategory(value string) (string, bool) {
	normalized := categoryCaser.String(strings.TrimSpace(value))
	if _, ok := skillCategorySet[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// NormalizeAddress lowercases a wallet address for storage and comparison.
// Address equality is the marketplace's entire ownership model; every
// comparison must pass through here or ownsVideo.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Account represents a wallet-address account row.
type Account struct {
	ID               string
	WalletAddress    string
	WorldIDNullifier string
	IsVerified       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Video represents a published skill video row.
type Video struct {
	ID               string
	Title            string
	Description      string
	SkillCategory    string
	VideoCID         string
	ThumbnailCID     string
	OwnerAddress     string
	IsVerifiedHuman  bool
	TokenID          *int64
	MintTxHash       string
	IPAssetID        string
	IPTxHash         string
	LicenseType      string
	LicenseTermsJSON string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewVideo carries the fields required to publish a video record.
type NewVideo struct {
	Title           string
	Description     string
	SkillCategory   string
	VideoCID        string
	ThumbnailCID    string
	OwnerAddress    string
	IsVerifiedHuman bool
	TokenID         *int64
	MintTxHash      string
	IPAssetID       string
	IPTxHash        string
}

// VideoUpdate carries the mutable fields of a video record. Nil pointers
// leave the stored value untouched. Owner address, content identifiers, and
// the primary key are deliberately absent: they are immutable through this
// path.
type VideoUpdate struct {
	Title            *string
	Description      *string
	SkillCategory    *string
	LicenseType      *string
	LicenseTermsJSON *string
	IPAssetID        *string
	IPTxHash         *string
	MintTxHash       *string
	TokenID          *int64
}

// IsZero reports whether the update mutates nothing.
func (u VideoUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.SkillCategory == nil &&
		u.LicenseType == nil && u.LicenseTermsJSON == nil && u.IPAssetID == nil &&
		u.IPTxHash == nil && u.MintTxHash == nil && u.TokenID == nil
}

// Filter narrows ListVideos results.
type Filter struct {
	Category string
	Search   string
	Owner    string
}
