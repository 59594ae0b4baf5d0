package api

import (
	"context"
	"log/slog"

	"kinetic/internal/catalog"
	"kinetic/internal/logging"
	"kinetic/internal/notifications"
	"kinetic/internal/services"
)

// Unpinner releases pinned content. Unpin failures on delete are logged
// and swallowed; the record is already gone.
type Unpinner interface {
	Unpin(ctx context.Context, hash string) error
}

// VideoService exposes catalog operations in wire form.
type VideoService struct {
	store   *catalog.Store
	gateway GatewayResolver
	pins    Unpinner
	notify  notifications.Service
	logger  *slog.Logger
}

// NewVideoService builds the service. gateway and pins may be nil when the
// pinning client is not configured.
func NewVideoService(store *catalog.Store, gateway GatewayResolver, pins Unpinner, notify notifications.Service, logger *slog.Logger) *VideoService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notify == nil {
		notify = notifications.Noop()
	}
	return &VideoService{store: store, gateway: gateway, pins: pins, notify: notify, logger: logger}
}

// List returns videos matching the filter.
func (s *VideoService) List(ctx context.Context, filter catalog.Filter) ([]VideoView, error) {
	videos, err := s.store.ListVideos(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]VideoView, 0, len(videos))
	for _, video := range videos {
		views = append(views, FromVideo(video, s.gateway))
	}
	return views, nil
}

// Describe returns a single video.
func (s *VideoService) Describe(ctx context.Context, id string) (VideoView, error) {
	video, err := s.store.GetVideo(ctx, id)
	if err != nil {
		return VideoView{}, err
	}
	return FromVideo(video, s.gateway), nil
}

// Create publishes a video record directly, outside the workflow.
func (s *VideoService) Create(ctx context.Context, req CreateVideoRequest) (VideoView, error) {
	video, err := s.store.CreateVideo(ctx, catalog.NewVideo{
		Title:           req.Title,
		Description:     req.Description,
		SkillCategory:   req.SkillCategory,
		VideoCID:        req.VideoIPFSHash,
		ThumbnailCID:    req.ThumbnailCID,
		OwnerAddress:    req.OwnerAddress,
		IsVerifiedHuman: req.IsVerifiedHuman,
	})
	if err != nil {
		return VideoView{}, err
	}
	return FromVideo(video, s.gateway), nil
}

// Update mutates the owner-editable fields of a record.
func (s *VideoService) Update(ctx context.Context, id string, req UpdateVideoRequest) (VideoView, error) {
	if req.OwnerAddress == "" {
		return VideoView{}, services.Wrap(services.ErrValidation, "api", "update video", "owner address required", nil)
	}
	video, err := s.store.UpdateVideo(ctx, id, req.OwnerAddress, catalog.VideoUpdate{
		Title:         req.Updates.Title,
		Description:   req.Updates.Description,
		SkillCategory: req.Updates.SkillCategory,
		LicenseType:   req.Updates.LicenseType,
	})
	if err != nil {
		return VideoView{}, err
	}
	return FromVideo(video, s.gateway), nil
}

// Delete removes a record and releases its pinned content best-effort.
func (s *VideoService) Delete(ctx context.Context, id, ownerAddress string) error {
	if ownerAddress == "" {
		return services.Wrap(services.ErrValidation, "api", "delete video", "owner address required", nil)
	}
	deleted, err := s.store.DeleteVideo(ctx, id, ownerAddress)
	if err != nil {
		return err
	}
	if s.pins != nil {
		s.unpinAfterDelete(ctx, id, deleted)
	}
	if err := s.notify.NotifyVideoDeleted(ctx, deleted.Title); err != nil {
		s.logger.Warn("delete notification failed", logging.Error(err))
	}
	return nil
}

func (s *VideoService) unpinAfterDelete(ctx context.Context, id string, deleted *catalog.Video) {
	for _, cid := range []string{deleted.VideoCID, deleted.ThumbnailCID} {
		if cid == "" {
			continue
		}
		if err := s.pins.Unpin(ctx, cid); err != nil {
			s.logger.Warn("unpin after delete failed",
				logging.String("video_id", id),
				logging.String("cid", cid),
				logging.Error(err))
		}
	}
}
