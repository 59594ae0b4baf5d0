package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kinetic/internal/catalog"
	"kinetic/internal/logging"
	"kinetic/internal/notifications"
	"kinetic/internal/services"
	"kinetic/internal/services/ipreg"
	"kinetic/internal/services/mint"
	"kinetic/internal/services/pinning"
)

// Pinner uploads JSON documents to content storage.
type Pinner interface {
	PinJSON(ctx context.Context, name string, document any) (*pinning.PinResult, error)
}

// Minter submits token mints on the target network.
type Minter interface {
	EnsureChain(ctx context.Context) error
	Mint(ctx context.Context, params mint.Params) (*mint.Result, error)
}

// Registrar registers IP assets and attaches license terms.
type Registrar interface {
	Register(ctx context.Context, tokenID int64) (*ipreg.RegisterResult, error)
	AttachLicense(ctx context.Context, ipID string, terms ipreg.Terms) (*ipreg.AttachResult, error)
}

// Deps are the external services a workflow transition may call.
type Deps struct {
	Store     *catalog.Store
	Pins      Pinner
	Mint      Minter
	Registry  Registrar
	Notify    notifications.Service
	GatewayFn func(cid string) string
	Logger    *slog.Logger
}

// Manager owns the live sessions and serializes all transitions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	deps     Deps
	logger   *slog.Logger
}

// NewManager builds a manager holding sessions for at most ttl since their
// last mutation.
func NewManager(deps Deps, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notify == nil {
		deps.Notify = notifications.Noop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		deps:     deps,
		logger:   logger.With(logging.String("component", "session")),
	}
}

// Create opens a fresh workflow session for a wallet address.
func (m *Manager) Create(ownerAddress string) (*Session, error) {
	owner := catalog.NormalizeAddress(ownerAddress)
	if owner == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "create", "wallet address required", nil)
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:           uuid.NewString(),
		OwnerAddress: owner,
		Step:         StepUpload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	m.logger.Info("session created", logging.String("session_id", sess.ID), logging.String("owner", owner))
	return sess, nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, services.Wrap(services.ErrNotFound, "session", "get", id, nil)
	}
	return *sess, nil
}

// Count reports how many sessions are live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Discard drops a session, as the "Upload Another" action does.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Prune drops sessions idle past the ttl and returns how many went away.
func (m *Manager) Prune() int {
	cutoff := time.Now().UTC().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	var pruned int
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Run prunes idle sessions until the context ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := m.Prune(); pruned > 0 {
				m.logger.Debug("pruned idle sessions", logging.Int("count", pruned))
			}
		}
	}
}

func (m *Manager) locked(id string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, services.Wrap(services.ErrNotFound, "session", "transition", id, nil)
	}
	sess.clearError()
	err := fn(sess)
	return *sess, err
}

// AttachUpload records the pinned content id for the session's video file.
// The content id is immutable once set; a new upload needs a new session.
func (m *Manager) AttachUpload(id, contentID, fileName string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepUpload {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "attach upload",
				"file uploads only happen on the upload step", nil))
		}
		if sess.ContentID != "" {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "attach upload",
				"content id already set for this session", nil))
		}
		contentID = strings.TrimSpace(contentID)
		if contentID == "" {
			return sess.fail(services.Wrap(services.ErrValidation, "session", "attach upload",
				"content id required", nil))
		}
		sess.ContentID = contentID
		sess.FileName = strings.TrimSpace(fileName)
		sess.touch()
		return nil
	})
}

// AttachThumbnail records an optional pinned thumbnail.
func (m *Manager) AttachThumbnail(id, thumbnailCID string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepUpload && sess.Step != StepDetails {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "attach thumbnail",
				"thumbnails only attach before minting", nil))
		}
		sess.ThumbnailCID = strings.TrimSpace(thumbnailCID)
		sess.touch()
		return nil
	})
}

// SetVerified records a successful personhood verification.
func (m *Manager) SetVerified(id, nullifierHash string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepUpload {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "set verified",
				"verification only happens on the upload step", nil))
		}
		sess.IsHumanVerified = true
		sess.NullifierHash = strings.TrimSpace(nullifierHash)
		sess.touch()
		return nil
	})
}

// AdvanceToDetails moves upload to details once the file is pinned and the
// uploader is verified.
func (m *Manager) AdvanceToDetails(id string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepUpload {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "advance",
				"session is past the upload step", nil))
		}
		if sess.ContentID == "" {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "advance",
				"video must be uploaded first", nil))
		}
		if !sess.IsHumanVerified {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "advance",
				"personhood verification required", nil))
		}
		sess.Step = StepDetails
		sess.touch()
		return nil
	})
}

// SetDetails captures the video metadata entered on the details step.
func (m *Manager) SetDetails(id, title, description, category string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepDetails {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "set details",
				"details only change on the details step", nil))
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return sess.fail(services.Wrap(services.ErrValidation, "session", "set details",
				"title required", nil))
		}
		if !catalog.IsSkillCategory(category) {
			return sess.fail(services.Wrap(services.ErrValidation, "session", "set details",
				"unknown skill category "+category, nil))
		}
		sess.Title = title
		sess.Description = strings.TrimSpace(description)
		sess.SkillCategory = category
		sess.touch()
		return nil
	})
}

// Mint runs the details-to-mint transition: pin the token metadata, submit
// the mint, persist the video record, then advance. The mint result is kept
// on the session so retrying after a persistence failure does not submit a
// second mint transaction.
func (m *Manager) Mint(ctx context.Context, id string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepDetails {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "mint",
				"minting only happens on the details step", nil))
		}
		if sess.Title == "" || sess.Description == "" || sess.SkillCategory == "" || sess.ContentID == "" {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "mint",
				"title, description, category, and uploaded video required", nil))
		}

		if sess.MetadataCID == "" {
			result, err := m.deps.Pins.PinJSON(ctx, sess.Title+" metadata", m.tokenMetadata(sess))
			if err != nil {
				return sess.fail(err)
			}
			sess.MetadataCID = result.IPFSHash
		}

		if sess.MintedToken == nil {
			result, err := m.deps.Mint.Mint(ctx, mint.Params{
				To:          sess.OwnerAddress,
				MetadataURI: "ipfs://" + sess.MetadataCID,
				IPFSHash:    sess.ContentID,
				Category:    sess.SkillCategory,
				Verified:    sess.IsHumanVerified,
			})
			if err != nil {
				return sess.fail(err)
			}
			sess.MintedToken = &MintedToken{TokenID: result.TokenID, TxHash: result.TxHash}
			m.logger.Info("video minted",
				logging.String("session_id", sess.ID),
				logging.Int64("token_id", result.TokenID),
				logging.String("tx_hash", result.TxHash))
			if err := m.deps.Notify.NotifyVideoPublished(ctx, sess.Title, sess.SkillCategory, result.TokenID); err != nil {
				m.logger.Warn("publish notification failed", logging.Error(err))
			}
		}

		if sess.RecordID == "" {
			tokenID := sess.MintedToken.TokenID
			video, err := m.deps.Store.CreateVideo(ctx, catalog.NewVideo{
				Title:           sess.Title,
				Description:     sess.Description,
				SkillCategory:   sess.SkillCategory,
				VideoCID:        sess.ContentID,
				ThumbnailCID:    sess.ThumbnailCID,
				OwnerAddress:    sess.OwnerAddress,
				IsVerifiedHuman: sess.IsHumanVerified,
				TokenID:         &tokenID,
				MintTxHash:      sess.MintedToken.TxHash,
			})
			if err != nil {
				return sess.fail(err)
			}
			sess.RecordID = video.ID
		}

		sess.Step = StepMint
		sess.touch()
		return nil
	})
}

// RegisterIP runs the mint-to-license transition: register the token as an
// IP asset and persist the asset id into the video record.
func (m *Manager) RegisterIP(ctx context.Context, id string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepMint {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "register ip",
				"registration only happens after minting", nil))
		}
		if sess.MintedToken == nil || sess.RecordID == "" {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "register ip",
				"minted token and persisted record required", nil))
		}
		if err := m.deps.Mint.EnsureChain(ctx); err != nil {
			return sess.fail(err)
		}

		if sess.RegisteredAsset == nil {
			result, err := m.deps.Registry.Register(ctx, sess.MintedToken.TokenID)
			if err != nil {
				return sess.fail(err)
			}
			sess.RegisteredAsset = &RegisteredAsset{AssetID: result.IPAssetID, TxHash: result.TxHash}
			m.logger.Info("ip asset registered",
				logging.String("session_id", sess.ID),
				logging.String("ip_asset", result.IPAssetID))
			if err := m.deps.Notify.NotifyIPRegistered(ctx, sess.Title, result.IPAssetID); err != nil {
				m.logger.Warn("registration notification failed", logging.Error(err))
			}
		}

		if _, err := m.deps.Store.UpdateVideo(ctx, sess.RecordID, sess.OwnerAddress, catalog.VideoUpdate{
			IPAssetID: &sess.RegisteredAsset.AssetID,
			IPTxHash:  &sess.RegisteredAsset.TxHash,
		}); err != nil {
			return sess.fail(err)
		}

		sess.Step = StepLicense
		sess.touch()
		return nil
	})
}

// AttachLicense runs the license-to-complete transition.
func (m *Manager) AttachLicense(ctx context.Context, id string, terms ipreg.Terms) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		if sess.Step != StepLicense {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "attach license",
				"license terms only attach on the license step", nil))
		}
		if sess.RegisteredAsset == nil {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "attach license",
				"registered ip asset required", nil))
		}

		result, err := m.deps.Registry.AttachLicense(ctx, sess.RegisteredAsset.AssetID, terms)
		if err != nil {
			return sess.fail(err)
		}

		encoded, err := json.Marshal(terms)
		if err != nil {
			return sess.fail(services.Wrap(services.ErrValidation, "session", "attach license", "encode terms", err))
		}
		termsJSON := string(encoded)
		licenseType := terms.Type
		if licenseType == "" {
			licenseType = ipreg.TypeStandard
		}
		if _, err := m.deps.Store.UpdateVideo(ctx, sess.RecordID, sess.OwnerAddress, catalog.VideoUpdate{
			LicenseType:      &licenseType,
			LicenseTermsJSON: &termsJSON,
		}); err != nil {
			return sess.fail(err)
		}

		sess.LicenseTerms = &terms
		sess.Step = StepComplete
		sess.touch()
		m.logger.Info("workflow complete",
			logging.String("session_id", sess.ID),
			logging.Int64("license_terms", result.TermsID))
		return nil
	})
}

// Back steps the session one state backwards. Upload and complete stay put.
func (m *Manager) Back(id string) (Session, error) {
	return m.locked(id, func(sess *Session) error {
		previous, ok := sess.Step.Back()
		if !ok {
			return sess.fail(services.Wrap(services.ErrPrecondition, "session", "back",
				"cannot step back from "+sess.Step.String(), nil))
		}
		sess.Step = previous
		sess.touch()
		return nil
	})
}

func (m *Manager) tokenMetadata(sess *Session) map[string]any {
	videoURL := "ipfs://" + sess.ContentID
	if m.deps.GatewayFn != nil {
		videoURL = m.deps.GatewayFn(sess.ContentID)
	}
	metadata := map[string]any{
		"name":        sess.Title,
		"description": sess.Description,
		"videoUrl":    videoURL,
		"ipfsHash":    sess.ContentID,
		"attributes": []map[string]any{
			{"trait_type": "Skill Category", "value": sess.SkillCategory},
			{"trait_type": "Verified Human", "value": sess.IsHumanVerified},
		},
	}
	if sess.ThumbnailCID != "" {
		thumbURL := "ipfs://" + sess.ThumbnailCID
		if m.deps.GatewayFn != nil {
			thumbURL = m.deps.GatewayFn(sess.ThumbnailCID)
		}
		metadata["image"] = thumbURL
	}
	return metadata
}
