package ipreg

// License term ids pre-deployed on the target network.
const (
	TermsNonCommercialSocial int64 = 1
	TermsCommercial10Percent int64 = 2
	TermsCommercial5Percent  int64 = 3
	TermsAITrainingAllowed   int64 = 4
)

// TypeStandard and TypeAITraining are the two supported license shapes.
const (
	TypeStandard   = "standard"
	TypeAITraining = "ai-training"
)

// Terms is the license configuration a creator picks for a video.
type Terms struct {
	Type              string `json:"type"`
	RoyaltyPercentage int    `json:"royaltyPercentage,omitempty"`
	FlatFee           int    `json:"flatFee,omitempty"`
	CommercialUse     bool   `json:"commercialUse"`
	SocialMediaUse    bool   `json:"socialMediaUse"`
}

// TermsID maps a license configuration to the matching pre-deployed terms.
// AI training wins over everything else; commercial splits on the 10
// percent royalty threshold; anything else is non-commercial social.
func TermsID(terms Terms) int64 {
	switch {
	case terms.Type == TypeAITraining:
		return TermsAITrainingAllowed
	case terms.CommercialUse && terms.RoyaltyPercentage >= 10:
		return TermsCommercial10Percent
	case terms.CommercialUse:
		return TermsCommercial5Percent
	default:
		return TermsNonCommercialSocial
	}
}
